package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"os"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/and161185/vesting-engine/internal/api"
)

// ---- grpc dial ----

type bearerCreds struct {
	token  string
	secure bool
}

func (b bearerCreds) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + b.token}, nil
}
func (b bearerCreds) RequireTransportSecurity() bool { return b.secure }

func loadTLS(caPath string, skipVerify bool) (credentials.TransportCredentials, error) {
	if skipVerify {
		return credentials.NewTLS(&tls.Config{InsecureSkipVerify: true}), nil
	}
	if caPath == "" {
		return credentials.NewClientTLSFromCert(nil, ""), nil
	}
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New("bad CA cert")
	}
	return credentials.NewTLS(&tls.Config{RootCAs: pool}), nil
}

// dial connects to vestd. bearer is attached to every call when set.
func (c *cli) dial(bearer string) (*grpc.ClientConn, error) {
	opts := []grpc.DialOption{api.CallOptions()}
	if c.plaintext {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	} else {
		creds, err := loadTLS(c.caPath, c.skipVerify)
		if err != nil {
			return nil, err
		}
		opts = append(opts, grpc.WithTransportCredentials(creds))
	}
	if bearer != "" {
		opts = append(opts, grpc.WithPerRPCCredentials(bearerCreds{token: bearer, secure: !c.plaintext}))
	}
	return grpc.NewClient(c.addr, opts...)
}
