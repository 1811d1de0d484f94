// internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/ThinkInAIXYZ/go-mcp/server"
	"github.com/sirupsen/logrus"

	"nutriscan/internal/config"
	"nutriscan/internal/favorites"
	"nutriscan/internal/logging"
	"nutriscan/internal/models"
	"nutriscan/internal/offclient"
	"nutriscan/internal/scoring"
	"nutriscan/internal/storage"
)

// ProductSource produces product records, normally the Open Food Facts client.
type ProductSource interface {
	Product(ctx context.Context, barcode string) (*models.ProductRecord, error)
	AdditiveNames(ctx context.Context, codes []string) ([]string, error)
}

type ScanLog interface {
	SaveScan(ctx context.Context, scan *models.ScanEntry) error
	GetScans(ctx context.Context, limit int) ([]*models.ScanEntry, error)
}

type FavoritesService interface {
	Toggle(ctx context.Context, id string) (bool, error)
	IsFavorite(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]string, error)
}

type toolHandler func(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error)

type ScanServer struct {
	server     *server.Server
	httpServer *http.Server
	storage    *storage.SQLiteStorage
	store      *favorites.Store

	products  ProductSource
	scans     ScanLog
	favorites FavoritesService
	tools     map[string]toolHandler
	log       *logrus.Entry
}

func NewScanServer(cfg *config.Config) (*ScanServer, error) {
	// Initialize database
	stor, err := storage.NewSQLiteStorage(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	store := favorites.New(stor,
		favorites.WithKey(cfg.FavoritesKey),
		favorites.WithOpTimeout(cfg.FavoritesOpTimeout),
	)

	scanServer := newScanServer(offclient.New(cfg.OFF), stor, store)
	scanServer.storage = stor
	scanServer.store = store

	mcpServer, err := server.NewServer(
		nil, // transport is handled by handleHTTP
		server.WithServerInfo(protocol.Implementation{
			Name:    "nutriscan",
			Version: "1.0.0",
		}),
	)
	if err != nil {
		store.Close()
		stor.Close()
		return nil, fmt.Errorf("failed to create MCP server: %w", err)
	}
	scanServer.server = mcpServer

	scanServer.httpServer = &http.Server{
		Addr:    cfg.Addr(),
		Handler: scanServer.Handler(),
	}

	return scanServer, nil
}

func newScanServer(products ProductSource, scans ScanLog, favs FavoritesService) *ScanServer {
	s := &ScanServer{
		products:  products,
		scans:     scans,
		favorites: favs,
		log:       logging.Component("server"),
	}
	s.registerTools()
	return s
}

func (s *ScanServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/", s.handleHTTP)
	return mux
}

func (s *ScanServer) handleHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if r.Method == http.MethodOptions {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request protocol.CallToolRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	handler, ok := s.tools[request.Name]
	if !ok {
		http.Error(w, fmt.Sprintf("Unknown tool: %s", request.Name), http.StatusNotFound)
		return
	}

	result, err := handler(r.Context(), &request)
	if err != nil {
		status := statusFor(err)
		s.log.WithError(err).WithFields(logrus.Fields{"tool": request.Name, "status": status}).Warn("tool call failed")
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		s.log.WithError(err).Error("failed to encode response")
	}
}

// statusFor maps the error taxonomy onto HTTP. Storage failures are 503 so
// the client knows to retry.
func statusFor(err error) int {
	switch {
	case errors.Is(err, favorites.ErrStorage), errors.Is(err, favorites.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, errInvalidParams), errors.Is(err, favorites.ErrInvalidID), errors.Is(err, scoring.ErrMalformedRecord):
		return http.StatusBadRequest
	case errors.Is(err, scoring.ErrUnavailableData):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *ScanServer) Start(ctx context.Context) error {
	s.log.Infof("Starting nutriscan server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *ScanServer) Stop() error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(context.Background())
	}
	if s.store != nil {
		s.store.Close()
	}
	if s.storage != nil {
		s.storage.Close()
	}
	return err
}

// ToolNames lists the registered tools in alphabetical order.
func (s *ScanServer) ToolNames() []string {
	names := make([]string, 0, len(s.tools))
	for name := range s.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *ScanServer) createJSONResponse(data interface{}) (*protocol.CallToolResult, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}

	return &protocol.CallToolResult{
		Content: []protocol.Content{
			protocol.TextContent{
				Type: "text",
				Text: string(jsonBytes),
			},
		},
	}, nil
}

func (s *ScanServer) logRegistered() {
	s.log.WithField("tools", strings.Join(s.ToolNames(), ",")).Debug("tools registered")
}
