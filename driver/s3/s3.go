package s3

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/gobeaver/storekit"
)

// API is the subset of the S3 client used for listing and metadata calls.
type API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	ListObjects(ctx context.Context, params *s3.ListObjectsInput, optFns ...func(*s3.Options)) (*s3.ListObjectsOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Adapter is the S3 storekit.ObjectBackend. It keeps two handles: the
// client for listing and metadata, and a transfer manager for object bodies.
type Adapter struct {
	mu       sync.Mutex
	explicit Credentials
	cfg      *storekit.Config
	logger   *slog.Logger

	creds      *Credentials
	api        API
	uploader   *manager.Uploader
	downloader *manager.Downloader
}

// AdapterOption is a function that configures Adapter
type AdapterOption func(*Adapter)

// WithClient uses an existing client instead of building one on connect.
func WithClient(client *s3.Client) AdapterOption {
	return func(a *Adapter) {
		a.setClient(client)
	}
}

// WithAPI uses api for listing and metadata calls. Transfers still need a
// full client from WithClient or Connect.
func WithAPI(api API) AdapterOption {
	return func(a *Adapter) {
		a.api = api
	}
}

// WithConfig sets the configuration source consulted on connect
func WithConfig(cfg *storekit.Config) AdapterOption {
	return func(a *Adapter) {
		a.cfg = cfg
	}
}

// WithLogger sets the adapter's logger
func WithLogger(logger *slog.Logger) AdapterOption {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// New creates an S3 backend. Nothing is resolved or built until Connect.
func New(creds Credentials, options ...AdapterOption) *Adapter {
	adapter := &Adapter{explicit: creds, logger: slog.Default()}
	for _, option := range options {
		option(adapter)
	}
	return adapter
}

// NewStore creates an S3 backed storekit.ObjectStore.
func NewStore(creds Credentials, options ...AdapterOption) *storekit.ObjectStore {
	a := New(creds, options...)
	return storekit.NewObjectStore(a, a.logger)
}

func (a *Adapter) Type() storekit.StoreType {
	return storekit.TypeS3
}

func (a *Adapter) setClient(client *s3.Client) {
	a.api = client
	a.uploader = manager.NewUploader(client)
	a.downloader = manager.NewDownloader(client)
}

// resolve returns the resolved credentials, resolving them once.
// a.mu must be held.
func (a *Adapter) resolve() (*Credentials, error) {
	if a.creds != nil {
		return a.creds, nil
	}
	cfg, err := storekit.ResolveConfig(a.cfg)
	if err != nil {
		return nil, storekit.ConfigError("connect", "s3", err)
	}
	creds, err := Resolve(a.explicit, cfg)
	if err != nil {
		return nil, storekit.ConfigError("connect", "s3", err)
	}
	a.creds = &creds
	return a.creds, nil
}

// Credentials returns the resolved credentials.
func (a *Adapter) Credentials() (Credentials, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	creds, err := a.resolve()
	if err != nil {
		return Credentials{}, err
	}
	return *creds, nil
}

// Environ implements storekit.Environer.
func (a *Adapter) Environ(ctx context.Context) ([]string, error) {
	creds, err := a.Credentials()
	if err != nil {
		return nil, err
	}
	return creds.Environ(), nil
}

// Connect resolves credentials and builds the client. It is idempotent.
func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	creds, err := a.resolve()
	if err != nil {
		return err
	}
	if a.api != nil {
		return nil
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if creds.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(creds.Region))
	}
	if creds.Static() {
		a.logger.Info("using static AWS credentials")
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKey, creds.SecretKey, creds.SessionToken),
		))
	} else {
		a.logger.Info("using default AWS credential chain")
	}
	if creds.VerifySSL != nil && !*creds.VerifySSL {
		loadOpts = append(loadOpts, awsconfig.WithHTTPClient(
			awshttp.NewBuildableClient().WithTransportOptions(func(tr *http.Transport) {
				if tr.TLSClientConfig == nil {
					tr.TLSClientConfig = &tls.Config{}
				}
				tr.TLSClientConfig.InsecureSkipVerify = true
			}),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return storekit.NewPathError("connect", "s3", storekit.ErrConnection, err)
	}

	endpoint := creds.Endpoint()
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	a.setClient(client)
	return nil
}

// Close is a no-op.
func (a *Adapter) Close() error {
	return nil
}

func (a *Adapter) legacy() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.creds != nil && a.creds.LegacyAPI != nil && *a.creds.LegacyAPI
}

// ListPage issues one ListObjectsV2 call, or ListObjects when the legacy API
// is enabled.
func (a *Adapter) ListPage(ctx context.Context, req storekit.ListRequest, token string) (*storekit.ObjectPage, error) {
	if a.legacy() {
		return a.listPageLegacy(ctx, req, token)
	}

	in := &s3.ListObjectsV2Input{
		Bucket: aws.String(req.Container),
		Prefix: aws.String(req.Prefix),
	}
	if req.Delimiter != "" {
		in.Delimiter = aws.String(req.Delimiter)
	}
	if req.PageSize > 0 {
		in.MaxKeys = aws.Int32(req.PageSize)
	}
	if token != "" {
		in.ContinuationToken = aws.String(token)
	}

	out, err := a.api.ListObjectsV2(ctx, in)
	if err != nil {
		return nil, mapS3Error("list", req.Container+"/"+req.Prefix, err)
	}

	page := &storekit.ObjectPage{}
	for _, obj := range out.Contents {
		page.Objects = append(page.Objects, objectEntry(obj))
	}
	for _, p := range out.CommonPrefixes {
		page.Prefixes = append(page.Prefixes, aws.ToString(p.Prefix))
	}
	if aws.ToBool(out.IsTruncated) {
		page.NextToken = aws.ToString(out.NextContinuationToken)
	}
	return page, nil
}

func (a *Adapter) listPageLegacy(ctx context.Context, req storekit.ListRequest, token string) (*storekit.ObjectPage, error) {
	in := &s3.ListObjectsInput{
		Bucket: aws.String(req.Container),
		Prefix: aws.String(req.Prefix),
	}
	if req.Delimiter != "" {
		in.Delimiter = aws.String(req.Delimiter)
	}
	if req.PageSize > 0 {
		in.MaxKeys = aws.Int32(req.PageSize)
	}
	if token != "" {
		in.Marker = aws.String(token)
	}

	out, err := a.api.ListObjects(ctx, in)
	if err != nil {
		return nil, mapS3Error("list", req.Container+"/"+req.Prefix, err)
	}

	page := &storekit.ObjectPage{}
	last := ""
	for _, obj := range out.Contents {
		entry := objectEntry(obj)
		page.Objects = append(page.Objects, entry)
		if entry.Key > last {
			last = entry.Key
		}
	}
	for _, p := range out.CommonPrefixes {
		prefix := aws.ToString(p.Prefix)
		page.Prefixes = append(page.Prefixes, prefix)
		if prefix > last {
			last = prefix
		}
	}
	if aws.ToBool(out.IsTruncated) {
		// NextMarker is only returned when a delimiter is set
		page.NextToken = aws.ToString(out.NextMarker)
		if page.NextToken == "" {
			page.NextToken = last
		}
	}
	return page, nil
}

func objectEntry(obj types.Object) storekit.ObjectEntry {
	return storekit.ObjectEntry{
		Key:  aws.ToString(obj.Key),
		Size: aws.ToInt64(obj.Size),
		ETag: strings.Trim(aws.ToString(obj.ETag), `"`),
	}
}

func (a *Adapter) Head(ctx context.Context, container, key string) (*storekit.ObjectEntry, error) {
	out, err := a.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(container),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, mapS3Error("head", container+"/"+key, err)
	}
	return &storekit.ObjectEntry{
		Key:  key,
		Size: aws.ToInt64(out.ContentLength),
		ETag: strings.Trim(aws.ToString(out.ETag), `"`),
	}, nil
}

func (a *Adapter) Put(ctx context.Context, container, key string, r io.Reader, opts *storekit.Options) error {
	if a.uploader == nil {
		return &storekit.PathError{Op: "put", Path: container + "/" + key, Err: storekit.ErrConnection}
	}

	in := &s3.PutObjectInput{
		Bucket: aws.String(container),
		Key:    aws.String(key),
		Body:   r,
	}
	if opts != nil {
		if opts.ContentType != "" {
			in.ContentType = aws.String(opts.ContentType)
		}
		if len(opts.Metadata) > 0 {
			in.Metadata = opts.Metadata
		}
		if opts.Encrypt {
			in.ServerSideEncryption = types.ServerSideEncryptionAes256
		}
		if opts.ACL != "" {
			in.ACL = types.ObjectCannedACL(opts.ACL)
		}
	}

	if _, err := a.uploader.Upload(ctx, in); err != nil {
		return mapS3Error("put", container+"/"+key, err)
	}
	return nil
}

func (a *Adapter) Get(ctx context.Context, container, key string, w io.WriterAt) error {
	if a.downloader == nil {
		return &storekit.PathError{Op: "get", Path: container + "/" + key, Err: storekit.ErrConnection}
	}

	_, err := a.downloader.Download(ctx, w, &s3.GetObjectInput{
		Bucket: aws.String(container),
		Key:    aws.String(key),
	})
	if err != nil {
		return mapS3Error("get", container+"/"+key, err)
	}
	return nil
}

func (a *Adapter) DeleteObject(ctx context.Context, container, key string) error {
	_, err := a.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(container),
		Key:    aws.String(key),
	})
	if err != nil {
		return mapS3Error("delete", container+"/"+key, err)
	}
	return nil
}

// mapS3Error maps S3 errors to storekit errors
func mapS3Error(op, filePath string, err error) error {
	var nsk *types.NoSuchKey
	var notFound *types.NotFound
	var noBucket *types.NoSuchBucket

	if errors.As(err, &nsk) || errors.As(err, &notFound) || errors.As(err, &noBucket) {
		return storekit.NewPathError(op, filePath, storekit.ErrNotFound, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "NoSuchBucket":
			return storekit.NewPathError(op, filePath, storekit.ErrNotFound, err)
		}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	return storekit.NewPathError(op, filePath, storekit.ErrTransfer, err)
}

var (
	_ storekit.ObjectBackend = (*Adapter)(nil)
	_ storekit.Environer     = (*Adapter)(nil)
	_ API                    = (*s3.Client)(nil)
)
