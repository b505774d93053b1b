package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/quantrail/finsight/internal/extract"
	"github.com/quantrail/finsight/internal/fileid"
	"github.com/quantrail/finsight/internal/models"
)

const (
	metaKeySourcePath  = "source_path"
	metaKeySourceMtime = "source_mtime"
	metaKeySourceSize  = "source_size"
)

// FileProcessor ingests documents from files on disk, deriving stable
// document ids from paths so re-processing a changed file replaces its
// previous chunks.
type FileProcessor struct {
	processor *Processor
	extractor *extract.Extractor
	logger    *zap.Logger
}

// NewFileProcessor wraps a Processor with file reading and text extraction.
func NewFileProcessor(p *Processor, extractor *extract.Extractor, logger *zap.Logger) *FileProcessor {
	return &FileProcessor{processor: p, extractor: extractor, logger: logger}
}

// ProcessFile extracts text from the file and runs the pipeline. If
// allowedExts is non-empty the file's extension must be in the list.
// Unchanged files (same path, mtime and size as the stored document) are
// skipped.
func (fp *FileProcessor) ProcessFile(ctx context.Context, path string, allowedExts []string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(absPath))
	if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
		return fmt.Errorf("extension %q not in allowed list", ext)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", absPath)
	}

	docID := fileid.FileDocID(absPath)
	if fp.unchanged(ctx, absPath, docID, info) {
		fp.logger.Debug("skipping unchanged file", zap.String("path", absPath))
		return nil
	}

	text, err := fp.extractor.Extract(absPath)
	if err != nil {
		return fmt.Errorf("extract content: %w", err)
	}

	input := &models.DocumentInput{
		ID:      docID,
		Title:   filepath.Base(absPath),
		Content: text,
		Metadata: map[string]interface{}{
			metaKeySourcePath:  absPath,
			metaKeySourceMtime: strconv.FormatInt(info.ModTime().UnixNano(), 10),
			metaKeySourceSize:  strconv.FormatInt(info.Size(), 10),
		},
	}
	if _, err := fp.processor.ProcessDocument(ctx, input); err != nil {
		return err
	}
	fp.logger.Debug("file processed", zap.String("path", absPath), zap.String("doc_id", docID))
	return nil
}

// ProcessDirectory walks dir recursively and processes each regular file with
// an allowed extension. Returns the number of files processed and the first
// error encountered.
func (fp *FileProcessor) ProcessDirectory(ctx context.Context, dir string, allowedExts []string) (n int, err error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", absDir)
	}
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
			return nil
		}
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		if procErr := fp.ProcessFile(ctx, path, allowedExts); procErr != nil {
			return procErr
		}
		n++
		return nil
	})
	return n, err
}

// DeleteFile removes the document derived from path from all indices.
func (fp *FileProcessor) DeleteFile(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	return fp.processor.DeleteDocument(ctx, fileid.FileDocID(absPath))
}

// unchanged reports whether the stored document already reflects the file's
// current path, mtime and size.
func (fp *FileProcessor) unchanged(ctx context.Context, absPath, docID string, info os.FileInfo) bool {
	doc, err := fp.processor.storage.GetDocument(ctx, docID)
	if err != nil || doc.Metadata == nil {
		return false
	}
	if doc.Status != models.StatusCompleted {
		return false
	}
	if doc.Metadata[metaKeySourcePath] != absPath {
		return false
	}
	// Stored as strings to avoid JSON float64 precision loss (UnixNano exceeds 53 bits).
	return metadataInt64(doc.Metadata, metaKeySourceMtime) == info.ModTime().UnixNano() &&
		metadataInt64(doc.Metadata, metaKeySourceSize) == info.Size()
}

func metadataInt64(m map[string]interface{}, key string) int64 {
	v, ok := m[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case string:
		x, _ := strconv.ParseInt(n, 10, 64)
		return x
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
