package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aniruddha1295/SkyFall-Monad/internal/domain"
)

// SnapshotArchive is the read side of the settlement archive. The S3
// archiver satisfies it.
type SnapshotArchive interface {
	Load(ctx context.Context, path string) (domain.SettlementSnapshot, error)
	ListMonth(ctx context.Context, month time.Time) ([]domain.BlobInfo, error)
}

// ArchiveHandler serves archived settlement snapshots for operators.
type ArchiveHandler struct {
	archive SnapshotArchive
	logger  *slog.Logger
}

// NewArchiveHandler creates an ArchiveHandler with the given archive and
// logger.
func NewArchiveHandler(archive SnapshotArchive, logger *slog.Logger) *ArchiveHandler {
	return &ArchiveHandler{
		archive: archive,
		logger:  logger,
	}
}

// ListMonth lists the snapshots archived in one year-month.
// GET /api/archive?month=2026-09
func (h *ArchiveHandler) ListMonth(w http.ResponseWriter, r *http.Request) {
	month, err := time.Parse("2006-01", r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "month must be formatted YYYY-MM")
		return
	}

	infos, err := h.archive.ListMonth(r.Context(), month)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	type objectView struct {
		Path         string `json:"path"`
		Size         int64  `json:"size"`
		LastModified string `json:"last_modified,omitempty"`
	}
	views := make([]objectView, 0, len(infos))
	for _, info := range infos {
		v := objectView{Path: info.Path, Size: info.Size}
		if !info.LastModified.IsZero() {
			v.LastModified = info.LastModified.UTC().Format(time.RFC3339)
		}
		views = append(views, v)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"month":     month.Format("2006-01"),
		"snapshots": views,
	})
}

// GetSnapshot loads one archived snapshot by its object key.
// GET /api/archive/snapshot?key=archive/settlements/2026-09/market-42.json
func (h *ArchiveHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "missing key")
		return
	}

	snap, err := h.archive.Load(r.Context(), key)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, snap)
}
