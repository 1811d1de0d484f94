// internal/server/tools.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"

	"nutriscan/internal/models"
	"nutriscan/internal/offclient"
	"nutriscan/internal/scoring"
)

var errInvalidParams = errors.New("invalid parameters")

type ScoreProductParams struct {
	Barcode string          `json:"barcode,omitempty" description:"Barcode to look up on Open Food Facts"`
	Record  json.RawMessage `json:"record,omitempty" description:"Product record to score instead of fetching one, in Open Food Facts or internal layout"`
	Save    *bool           `json:"save,omitempty" description:"Whether to record the scan in history (default true)"`
}

type AdditiveNamesParams struct {
	Codes []string `json:"codes" description:"Additive codes, optionally en: prefixed"`
}

type FavoriteParams struct {
	ProductID string `json:"product_id" description:"Product identifier (barcode)"`
}

type GetScansParams struct {
	Limit int `json:"limit,omitempty" description:"Maximum number of scans to return"`
}

// ScoreFailure is returned by score_product in place of a scored product when
// the record could not be fetched or scored.
type ScoreFailure struct {
	ProductID string          `json:"product_id"`
	Category  models.Category `json:"category"`
	Error     string          `json:"error"`
}

type FavoriteState struct {
	ProductID string `json:"product_id"`
	Favorite  bool   `json:"favorite"`
}

type AdditiveInfo struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Penalty int    `json:"penalty"`
}

// extractParams safely extracts parameters from the request arguments
func extractParams(req *protocol.CallToolRequest, target interface{}) error {
	jsonBytes, err := json.Marshal(req.Arguments)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal arguments: %v", errInvalidParams, err)
	}

	if err := json.Unmarshal(jsonBytes, target); err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}

	return nil
}

// handleScoreProduct scores a fetched or supplied record. Fetch and scoring
// failures are answered with an Unknown or Error category, not an error.
func (s *ScanServer) handleScoreProduct(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params ScoreProductParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}

	params.Barcode = strings.TrimSpace(params.Barcode)
	hasRecord := len(params.Record) > 0 && string(params.Record) != "null"
	if params.Barcode == "" && !hasRecord {
		return nil, fmt.Errorf("%w: barcode or record is required", errInvalidParams)
	}

	var (
		rec *models.ProductRecord
		err error
	)
	if hasRecord {
		rec, err = offclient.DecodeRecord(params.Record)
	} else {
		rec, err = s.products.Product(ctx, params.Barcode)
	}
	if err != nil {
		s.log.WithError(err).WithField("barcode", params.Barcode).Warn("product record unavailable")
		return s.createJSONResponse(ScoreFailure{ProductID: params.Barcode, Category: scoring.Outcome(err), Error: err.Error()})
	}

	scored, err := scoring.ScoreProduct(rec)
	if err != nil {
		return s.createJSONResponse(ScoreFailure{ProductID: rec.ID, Category: scoring.Outcome(err), Error: err.Error()})
	}

	if params.Save == nil || *params.Save {
		if err := s.scans.SaveScan(ctx, models.NewScanEntry(scored, time.Now())); err != nil {
			// history is best effort; the score is still valid
			s.log.WithError(err).WithField("product_id", scored.ProductID).Warn("failed to record scan")
		}
	}

	return s.createJSONResponse(scored)
}

func (s *ScanServer) handleAdditiveNames(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params AdditiveNamesParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}

	names, err := s.products.AdditiveNames(ctx, params.Codes)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve additives: %w", err)
	}

	infos := make([]AdditiveInfo, 0, len(params.Codes))
	for i, code := range params.Codes {
		infos = append(infos, AdditiveInfo{
			Code:    scoring.NormalizeAdditive(code),
			Name:    names[i],
			Penalty: scoring.AdditiveRisk(code),
		})
	}
	return s.createJSONResponse(infos)
}

func (s *ScanServer) handleToggleFavorite(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params FavoriteParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}

	favorite, err := s.favorites.Toggle(ctx, params.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle favorite: %w", err)
	}
	return s.createJSONResponse(FavoriteState{ProductID: strings.TrimSpace(params.ProductID), Favorite: favorite})
}

func (s *ScanServer) handleIsFavorite(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params FavoriteParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}

	favorite, err := s.favorites.IsFavorite(ctx, params.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to read favorite: %w", err)
	}
	return s.createJSONResponse(FavoriteState{ProductID: strings.TrimSpace(params.ProductID), Favorite: favorite})
}

func (s *ScanServer) handleListFavorites(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	ids, err := s.favorites.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return s.createJSONResponse(map[string][]string{"favorites": ids})
}

func (s *ScanServer) handleGetScans(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params GetScansParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}

	if params.Limit <= 0 {
		params.Limit = 20
	}

	scans, err := s.scans.GetScans(ctx, params.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve scans: %w", err)
	}
	return s.createJSONResponse(scans)
}

func (s *ScanServer) registerTools() {
	s.tools = map[string]toolHandler{
		"score_product":   s.handleScoreProduct,
		"additive_names":  s.handleAdditiveNames,
		"toggle_favorite": s.handleToggleFavorite,
		"is_favorite":     s.handleIsFavorite,
		"list_favorites":  s.handleListFavorites,
		"get_scans":       s.handleGetScans,
	}
	s.logRegistered()
}
