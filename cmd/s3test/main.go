// Command s3test exercises an S3-compatible object store end to end: put,
// head, list, presign and delete. Useful for verifying bucket credentials
// and MinIO setups before pointing the server at them.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/tendant/simple-photos/pkg/simplephotos"
	s3storage "github.com/tendant/simple-photos/pkg/simplephotos/storage/s3"
)

func main() {
	region := flag.String("region", "us-east-1", "AWS region")
	bucket := flag.String("bucket", "", "S3 bucket name")
	accessKey := flag.String("access-key", "", "AWS access key ID")
	secretKey := flag.String("secret-key", "", "AWS secret access key")
	endpoint := flag.String("endpoint", "", "Custom S3 endpoint (for MinIO, etc.)")
	usePathStyle := flag.Bool("use-path-style", false, "Use path-style addressing")
	createBucket := flag.Bool("create-bucket", false, "Create bucket if it doesn't exist")

	// MinIO shortcut
	useMinio := flag.Bool("use-minio", false, "Use MinIO defaults (sets endpoint, path-style, etc.)")
	minioEndpoint := flag.String("minio-endpoint", "http://localhost:9000", "MinIO server endpoint")

	flag.Parse()

	if *useMinio {
		*endpoint = *minioEndpoint
		*usePathStyle = true
		*createBucket = true
		if *accessKey == "" {
			*accessKey = "minioadmin"
		}
		if *secretKey == "" {
			*secretKey = "minioadmin"
		}
	}

	if *bucket == "" {
		log.Fatal("Bucket name is required")
	}

	store, err := s3storage.New(s3storage.Config{
		Region:                 *region,
		Bucket:                 *bucket,
		AccessKeyID:            *accessKey,
		SecretAccessKey:        *secretKey,
		Endpoint:               *endpoint,
		UsePathStyle:           *usePathStyle,
		CreateBucketIfNotExist: *createBucket,
	})
	if err != nil {
		log.Fatalf("Failed to create store: %v", err)
	}

	ctx := context.Background()
	key := fmt.Sprintf("s3test/probe_%d.txt", time.Now().Unix())

	fmt.Printf("Putting %s...\n", key)
	err = store.Put(ctx, simplephotos.PutParams{
		Key:         key,
		ContentType: "text/plain",
	}, []byte("connectivity probe"))
	if err != nil {
		log.Fatalf("Put failed: %v", err)
	}

	exists, err := store.HeadExists(ctx, key)
	if err != nil {
		log.Fatalf("Head failed: %v", err)
	}
	fmt.Printf("Head: exists=%v\n", exists)

	page, err := store.ListByPrefix(ctx, "s3test/", 10, "")
	if err != nil {
		log.Fatalf("List failed: %v", err)
	}
	fmt.Printf("List: %d key(s) under s3test/\n", len(page.Keys))

	url, err := store.Presign(ctx, key, time.Hour)
	if err != nil {
		log.Fatalf("Presign failed: %v", err)
	}
	fmt.Printf("Presigned URL: %s\n", url)

	if err := store.DeleteOne(ctx, key); err != nil {
		log.Fatalf("Delete failed: %v", err)
	}
	fmt.Println("Deleted probe object. All operations succeeded.")
}
