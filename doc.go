// Package storefront is the core of a clothing-store REST backend: admin
// accounts, a product catalog and the image upload pipeline that feeds both.
//
// Uploaded images go to one of two storage backends. The remote object store
// is tried first; if any file of a request fails there, the whole request is
// stored on local disk instead. Every stored file is described by an
// AssetDescriptor that records the backend that accepted the bytes, and that
// field alone decides where the file is deleted from later.
//
// # Key Components
//
//   - AssetStore: a storage backend (see the s3store and filesystem packages)
//   - Pipeline: validates a multipart batch and stores it, remote then local
//   - Cleaner: best-effort deletion of orphaned or superseded descriptors
//   - AdminRepo, ProductRepo: entity persistence (see the database package)
//   - AdminService, ProductService: orchestrate uploads, persistence and cleanup
//
// # Example Usage
//
//	cleaner := storefront.NewCleaner(storefront.CleanerConfig{}, remote, local)
//	pipeline, err := storefront.NewPipeline(remote, local, cleaner)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	batch, err := pipeline.AcceptUpload(ctx, files, storefront.ProductImagesUpload(),
//	    storefront.NamingContext{Namespace: storefront.ProductNamespace("shirts"), Seed: "Linen Shirt"})
//
// See the http package for the REST API and cmd/storefront for the server.
package storefront
