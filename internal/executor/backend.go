// SPDX-License-Identifier: AGPL-3.0-only
package executor

import (
	"context"
	"fmt"

	"github.com/hli-yohan-lee/dev-mcp/internal/errors"
	"github.com/hli-yohan-lee/dev-mcp/internal/github"
	"github.com/hli-yohan-lee/dev-mcp/internal/logging"
	"github.com/hli-yohan-lee/dev-mcp/internal/model"
	"github.com/hli-yohan-lee/dev-mcp/internal/pdfdoc"
	"github.com/hli-yohan-lee/dev-mcp/internal/store"
)

// PDFReader extracts text from stored PDFs
type PDFReader interface {
	ReadFile(ctx context.Context, filename string) (pdfdoc.Document, error)
	Dir() string
}

// RecordQuerier looks up records with equality filters
type RecordQuerier interface {
	Query(ctx context.Context, table string, filters map[string]interface{}) ([]store.Record, error)
}

// RepoFetcher reads GitHub repositories
type RepoFetcher interface {
	Fetch(ctx context.Context, req github.Request) model.Envelope
}

// QueryResult is the data of a successful database lookup
type QueryResult struct {
	Table   string         `json:"table"`
	Records []store.Record `json:"records"`
	Count   int            `json:"count"`
}

// HealthStatus is the data of a health check
type HealthStatus struct {
	Status  string `json:"status"`
	PDFPath string `json:"pdf_path"`
}

// Backend runs the collaborator calls behind every tool and reports each
// outcome as an envelope. It serves both the in-process executor and the
// backend REST API.
type Backend struct {
	pdfs    PDFReader
	records RecordQuerier
	repos   RepoFetcher
	logger  *logging.Logger
}

// NewBackend creates a Backend
func NewBackend(pdfs PDFReader, records RecordQuerier, repos RepoFetcher, logger *logging.Logger) *Backend {
	if logger == nil {
		logger = logging.GetDefaultLogger()
	}
	return &Backend{pdfs: pdfs, records: records, repos: repos, logger: logger}
}

// ReadPDF extracts the text of a stored PDF
func (b *Backend) ReadPDF(ctx context.Context, filename string) model.Envelope {
	if filename == "" {
		return model.Failure("filename is required")
	}
	doc, err := b.pdfs.ReadFile(ctx, filename)
	if err != nil {
		if errors.Is(err, errors.KindNotFound) {
			return model.Failure(fmt.Sprintf(fileNotFoundFormat, filename))
		}
		b.logger.Warnf("PDF read failed for %s: %v", filename, err)
		return model.Failure(fmt.Sprintf(pdfErrorFormat, err))
	}
	if doc.Content == "" {
		doc.Content = pdfdoc.EmptyTextPlaceholder
	}
	return model.Success(doc)
}

// QueryDatabase looks up records in table matching every filter
func (b *Backend) QueryDatabase(ctx context.Context, table string, filters map[string]interface{}) model.Envelope {
	if table == "" {
		return model.Failure("table is required")
	}
	records, err := b.records.Query(ctx, table, filters)
	if err != nil {
		switch errors.KindOf(err) {
		case errors.KindNotFound:
			return model.Failure(fmt.Sprintf(tableNotFoundFormat, table))
		case errors.KindInvalidInput:
			return model.Failure(err.Error())
		}
		b.logger.Errorf("Query on %s failed: %v", table, err)
		return model.Failure(fmt.Sprintf(databaseErrorFormat, err))
	}
	if records == nil {
		records = []store.Record{}
	}
	return model.Success(QueryResult{Table: table, Records: records, Count: len(records)})
}

// GitHub fetches a repository listing or file
func (b *Backend) GitHub(ctx context.Context, req github.Request) model.Envelope {
	return b.repos.Fetch(ctx, req)
}

// Health reports liveness and the PDF storage location
func (b *Backend) Health(context.Context) model.Envelope {
	return model.Success(b.HealthStatus())
}

// HealthStatus returns the unwrapped health payload
func (b *Backend) HealthStatus() HealthStatus {
	return HealthStatus{Status: "healthy", PDFPath: b.pdfs.Dir()}
}
