// Package storekit provides one hierarchy API over flat object stores and
// real filesystems.
//
// Stores are addressed with URLs whose scheme picks the backend and whose
// first segment names the bucket or container:
//
//	s3://bucket/prefix/key
//	gs://bucket/prefix/key
//	wasbs://container/prefix/key
//	sftp://host/abs/path
//	mem://bucket/key
//	./relative/or/absolute/local/path
//
// # Storage Backends
//
// Backends live in driver packages that register themselves on import:
//
//   - Local filesystem (github.com/gobeaver/storekit/driver/local)
//   - Amazon S3 and S3 compatible servers (github.com/gobeaver/storekit/driver/s3)
//   - Google Cloud Storage (github.com/gobeaver/storekit/driver/gcs)
//   - Azure Blob Storage (github.com/gobeaver/storekit/driver/azure)
//   - SFTP (github.com/gobeaver/storekit/driver/sftp)
//   - In-memory (github.com/gobeaver/storekit/driver/memory)
//
// Object stores implement [ObjectBackend] and get their directory semantics
// from [ObjectStore], which groups keys by a delimiter. Filesystem-like
// stores implement [TreeBackend] and are wrapped by [TreeStore].
//
// # Basic Usage
//
//	import _ "github.com/gobeaver/storekit/driver/s3"
//
//	m, err := storekit.New(nil, "s3://my-bucket/datasets", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer m.Close()
//
//	// Fail early on bad credentials
//	if err := m.Connect(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	listing, err := m.LS(ctx, "2024")
//	err = m.UploadDir(ctx, "./out", "2024/run-7", storekit.WithOverwrite(true))
//	err = m.DownloadDir(ctx, "2024", "./cache",
//	    storekit.WithSelector(storekit.MustGlob("**/*.parquet")))
//
// Credentials come from the access record passed to the factory, then from
// [Config], then from the backend SDK defaults. Nothing is resolved until the
// first operation or an explicit Connect.
//
// # Error Handling
//
// Errors wrap sentinel values and can be tested with errors.Is or the
// helpers:
//
//	err := m.UploadFile(ctx, "a.csv", "a.csv")
//	if storekit.IsExist(err) {
//	    // pass WithOverwrite(true) to replace it
//	}
//
//	var pathErr *storekit.PathError
//	if errors.As(err, &pathErr) {
//	    fmt.Printf("Operation: %s, Path: %s\n", pathErr.Op, pathErr.Path)
//	}
//
// # Configuration
//
// Defaults are read from BEAVER_STOREKIT_* environment variables, or from
// another prefix via [LoadConfig]:
//
//	cfg, err := storekit.LoadConfig("ACME_")
//	m, err := storekit.New(cfg, "gs://bucket", nil)
package storekit
