package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	// Packages
	aws "github.com/aws/aws-sdk-go-v2/aws"
	config "github.com/aws/aws-sdk-go-v2/config"
	credentials "github.com/aws/aws-sdk-go-v2/credentials"
	errgroup "golang.org/x/sync/errgroup"

	multipart "github.com/mutablelogic/go-multipart"
	httphandler "github.com/mutablelogic/go-multipart/pkg/httphandler"
	manager "github.com/mutablelogic/go-multipart/pkg/manager"
	storage "github.com/mutablelogic/go-multipart/pkg/storage"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type AWSConfig struct {
	AccessKey    string `name:"access-key"    env:"AWS_ACCESS_KEY_ID"     help:"AWS access key ID (s3://)."                                        optional:""`
	SecretKey    string `name:"secret-key"    env:"AWS_SECRET_ACCESS_KEY" help:"AWS secret access key (s3://)."                                    optional:""`
	SessionToken string `name:"session-token" env:"AWS_SESSION_TOKEN"     help:"AWS session token for temporary credentials (s3://, optional)."   optional:""`
	Region       string `name:"region"  env:"AWS_REGION,AWS_DEFAULT_REGION" help:"AWS region."                                                    optional:""`
	Profile      string `name:"profile" env:"AWS_PROFILE"                   help:"AWS credentials profile (s3://, takes priority over access-key)." optional:""`
}

type RunServerCommand struct {
	Dest   string `name:"dest"   help:"Store uploads under this directory."                                  optional:"" xor:"storage"`
	Bucket string `name:"bucket" help:"Store uploads in a bucket URL (mem://, file://dir, s3://bucket)."     optional:"" xor:"storage"`

	MaxFileSize  int64    `name:"max-file-size"  help:"Maximum file part size in bytes."   optional:""`
	MaxFieldSize int64    `name:"max-field-size" help:"Maximum text field size in bytes."  optional:""`
	MaxBodySize  int64    `name:"max-body-size"  help:"Maximum request body size in bytes." optional:""`
	MaxFiles     int      `name:"max-files"      help:"Maximum number of file parts."       optional:""`
	MaxFields    int      `name:"max-fields"     help:"Maximum number of text fields."      optional:""`
	MimeTypes    []string `name:"mime-types"     help:"Allowed MIME patterns (e.g. image/*)." optional:""`

	AWS AWSConfig `embed:"" prefix:"aws."`
}

///////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (cmd *RunServerCommand) Run(ctx *Globals) error {
	engine, err := cmd.storage(ctx)
	if err != nil {
		return err
	}
	if closer, ok := engine.(*storage.BlobStorage); ok {
		defer closer.Close()
	}

	opts := []manager.Opt{
		manager.WithStorage(engine),
		manager.WithTracer(ctx.tracer),
		manager.WithMaxFileSize(cmd.MaxFileSize),
		manager.WithMaxFieldSize(cmd.MaxFieldSize),
		manager.WithMaxBodySize(cmd.MaxBodySize),
		manager.WithMaxFiles(cmd.MaxFiles),
		manager.WithMaxFields(cmd.MaxFields),
	}
	if len(cmd.MimeTypes) > 0 {
		opts = append(opts, manager.WithAllowedMimeTypes(cmd.MimeTypes...))
	}

	mgr, err := manager.New(ctx.ctx, opts...)
	if err != nil {
		return err
	}

	return serve(ctx, mgr)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// storage builds the engine from the command flags. The default is an
// in-memory engine, suitable for trying the server out.
func (cmd *RunServerCommand) storage(ctx *Globals) (multipart.Storage, error) {
	switch {
	case cmd.Dest != "":
		return storage.NewDiskStorage(
			storage.WithDestination(cmd.Dest),
			storage.WithFilename(storage.FilenameRandom),
		)
	case cmd.Bucket != "":
		opts := []storage.Opt{
			storage.WithCreateDir(),
			storage.WithTracer(ctx.tracer),
		}
		if strings.HasPrefix(cmd.Bucket, "s3://") {
			cfg, err := cmd.awsConfig(ctx.ctx)
			if err != nil {
				return nil, err
			}
			opts = append(opts, storage.WithAWSConfig(cfg))
		}
		return storage.NewBlobStorage(ctx.ctx, cmd.Bucket, opts...)
	default:
		return storage.NewMemoryStorage(), nil
	}
}

// awsConfig resolves AWS credentials from the command flags.
//
// Credential priority: --aws.profile / AWS_PROFILE > --aws.access-key /
// AWS_ACCESS_KEY_ID > anonymous. Anonymous credentials suit public buckets
// or S3-compatible services that don't require authentication.
func (cmd *RunServerCommand) awsConfig(ctx context.Context) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{}
	if cmd.AWS.Region != "" {
		opts = append(opts, config.WithRegion(cmd.AWS.Region))
	}

	switch {
	case cmd.AWS.Profile != "":
		opts = append(opts, config.WithSharedConfigProfile(cmd.AWS.Profile))
	case cmd.AWS.AccessKey != "":
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cmd.AWS.AccessKey, cmd.AWS.SecretKey, cmd.AWS.SessionToken),
		))
	default:
		opts = append(opts, config.WithCredentialsProvider(aws.AnonymousCredentials{}))
	}

	return config.LoadDefaultConfig(ctx, opts...)
}

// serve runs the HTTP server until the context is cancelled.
func serve(ctx *Globals, mgr *manager.Manager) error {
	router := http.NewServeMux()
	httphandler.RegisterHandlers(router, ctx.HTTP.Prefix, mgr, nil)

	server := &http.Server{
		Addr:              ctx.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       ctx.HTTP.Timeout,
	}

	group, groupCtx := errgroup.WithContext(ctx.ctx)
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	group.Go(func() error {
		ctx.logger.InfoContext(ctx.ctx, fmt.Sprintf("listening on %s%s", ctx.HTTP.Addr, ctx.HTTP.Prefix))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	return group.Wait()
}
