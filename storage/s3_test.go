package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"urbania_scraper/config"
)

func TestObjectKey(t *testing.T) {
	require.Equal(t, "properties_listing_a.csv", ObjectKey("", "properties_listing_a.csv"))
	require.Equal(t, "urbania/raw/properties_listing_a.csv", ObjectKey("/urbania/raw/", "properties_listing_a.csv"))
}

func TestS3Archive_URL(t *testing.T) {
	a := &S3Archive{cfg: config.S3Config{Bucket: "listings", Region: "us-east-1"}}
	require.Equal(t, "https://listings.s3.us-east-1.amazonaws.com/k.csv", a.URL("k.csv"))

	a = &S3Archive{cfg: config.S3Config{Bucket: "listings", Endpoint: "http://localhost:9000/"}}
	require.Equal(t, "http://localhost:9000/listings/k.csv", a.URL("k.csv"))
}
