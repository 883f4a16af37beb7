package mcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"

	"tableflip.dev/tranquil/pkg/app"
)

// Transport selects how the MCP server is reached.
type Transport string

const (
	TransportHTTP  Transport = "http"
	TransportStdio Transport = "stdio"
)

const (
	defaultAddr    = "127.0.0.1:8080"
	defaultPath    = "/mcp"
	shutdownWindow = 5 * time.Second
)

// Runner serves the journal, reflection and summary tools of App over one
// transport until its context ends.
type Runner struct {
	App     *app.App
	Version string

	Transport Transport
	// Addr and Path locate the HTTP endpoint.
	Addr     string
	Path     string
	CertFile string
	KeyFile  string

	// OnListening receives the endpoint URL once the HTTP listener is bound.
	OnListening func(url string)
}

func (r Runner) Do(ctx context.Context) error {
	if r.App == nil {
		return errors.New("mcp: no app")
	}
	if (r.CertFile == "") != (r.KeyFile == "") {
		return errors.New("mcp: tls needs both a certificate and a key")
	}

	srv := r.newServer()
	switch r.Transport {
	case TransportStdio, "":
		r.App.Log.Debug().Msg("mcp serving stdio")
		return server.NewStdioServer(srv).Listen(ctx, os.Stdin, os.Stdout)
	case TransportHTTP:
		return r.serveHTTP(ctx, srv)
	}
	return fmt.Errorf("mcp: unknown transport %q (expected http or stdio)", r.Transport)
}

func (r Runner) newServer() *server.MCPServer {
	version := r.Version
	if version == "" {
		version = "dev"
	}
	srv := server.NewMCPServer("tranquil", version,
		server.WithResourceCapabilities(false, false),
		server.WithToolCapabilities(false),
		server.WithInstructions("Read and write the signed-in user's journal, talk in today's reflection session, and read summaries and insights."),
		server.WithResourceRecovery(),
		server.WithRecovery(),
	)
	svc := NewService(r.App)
	registerResources(srv, svc)
	registerTools(srv, svc)
	return srv
}

// Handler mounts the streamable MCP endpoint at path on a chi router.
func Handler(srv *server.MCPServer, path string) http.Handler {
	rt := chi.NewRouter()
	rt.Use(middleware.Recoverer)
	rt.Handle(endpointPath(path), server.NewStreamableHTTPServer(srv))
	return rt
}

func (r Runner) serveHTTP(ctx context.Context, srv *server.MCPServer) error {
	addr := r.Addr
	if addr == "" {
		addr = defaultAddr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("mcp: listen %s: %w", addr, err)
	}

	url := r.endpointURL(ln.Addr())
	r.App.Log.Info().Str("url", url).Msg("mcp serving http")
	if r.OnListening != nil {
		r.OnListening(url)
	}

	hs := &http.Server{
		Handler:           Handler(srv, r.Path),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if r.CertFile != "" {
			err = hs.ServeTLS(ln, r.CertFile, r.KeyFile)
		} else {
			err = hs.Serve(ln)
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownWindow)
		defer cancel()
		r.App.Log.Debug().Msg("mcp http shutting down")
		return hs.Shutdown(sctx)
	})
	return g.Wait()
}

// endpointURL is the address a client can paste, with wildcard hosts
// replaced by loopback.
func (r Runner) endpointURL(bound net.Addr) string {
	scheme := "http"
	if r.CertFile != "" {
		scheme = "https"
	}
	host := bound.String()
	if tcp, ok := bound.(*net.TCPAddr); ok {
		ip := "127.0.0.1"
		if !tcp.IP.IsUnspecified() {
			ip = tcp.IP.String()
		}
		host = net.JoinHostPort(ip, strconv.Itoa(tcp.Port))
	}
	return scheme + "://" + host + endpointPath(r.Path)
}

func endpointPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return defaultPath
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
