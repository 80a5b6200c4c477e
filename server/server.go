package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/nixxel-company-limited/escpos-http-bridge/escpos"
	"github.com/nixxel-company-limited/escpos-http-bridge/logger"
	"github.com/nixxel-company-limited/escpos-http-bridge/printer"
	"go.uber.org/zap"
)

// shutdownTimeout bounds how long Stop waits for in-flight requests
const shutdownTimeout = 15 * time.Second

// Printer sends a job to a validated target
type Printer interface {
	Print(ctx context.Context, target printer.PrintTarget, job *escpos.Job) error
}

// Server is the HTTP front end that accepts print forms
type Server struct {
	printer    Printer
	validator  *printer.Validator
	job        func() *escpos.Job
	engine     *gin.Engine
	httpServer *http.Server
	listener   net.Listener
	address    string
	mu         sync.Mutex
	running    bool
	wg         sync.WaitGroup
	logger     *zap.Logger
}

// New creates a new server instance that prints the fixed test page.
// It panics if p is nil.
func New(p Printer, validator *printer.Validator, address string, log *zap.Logger) *Server {
	if p == nil {
		panic("server: nil Printer")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if validator == nil {
		validator = printer.NewValidator(printer.Defaults{})
	}

	s := &Server{
		printer:   p,
		validator: validator,
		job:       escpos.HelloWorld,
		address:   address,
		logger:    log,
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(logger.Recovery(s.logger), logger.GinMiddleware(s.logger), cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "HEAD", "PUT", "PATCH", "POST", "DELETE"},
		AllowHeaders:    []string{"*"},
		ExposeHeaders:   []string{"X-Request-ID"},
	}))

	r.GET("/", s.handleForm)
	r.POST("/print", s.handlePrint)
	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

// Handler returns the HTTP handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.logger.Error("Server already running")
		return fmt.Errorf("server already running")
	}

	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		s.logger.Error("Failed to start server", zap.Error(err))
		return fmt.Errorf("failed to start server: %w", err)
	}

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.running = true
	s.logger.Info("Server listening", zap.String("address", listener.Addr().String()))
	return nil
}

func (s *Server) serve() error {
	err := s.httpServer.Serve(s.listener)
	if errors.Is(err, http.ErrServerClosed) {
		s.logger.Info("Server shutting down, stopping accept loop")
		return nil
	}
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	return err
}

// Start starts the HTTP server and blocks until Stop is called
func (s *Server) Start() error {
	if err := s.listen(); err != nil {
		return err
	}
	return s.serve()
}

// StartAsync starts the HTTP server in a goroutine (non-blocking)
func (s *Server) StartAsync() error {
	if err := s.listen(); err != nil {
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.serve(); err != nil {
			s.logger.Error("Server stopped unexpectedly", zap.Error(err))
		}
	}()
	s.logger.Info("Server started in background")
	return nil
}

// Stop gracefully shuts the server down, waiting for in-flight prints
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		s.logger.Debug("Stop called but server is not running")
		return nil
	}

	s.logger.Info("Stopping server...")
	s.running = false
	httpServer := s.httpServer
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := httpServer.Shutdown(ctx)
	s.wg.Wait()
	if err != nil {
		s.logger.Error("Error stopping server", zap.Error(err))
		return err
	}

	s.logger.Info("Server stopped successfully")
	return nil
}

// IsRunning returns whether the server is running
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Address returns the configured listen address
func (s *Server) Address() string {
	return s.address
}

// ListenAddr returns the bound address while running, for ":0" listeners
func (s *Server) ListenAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}
