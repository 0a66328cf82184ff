package logging

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"github.com/skeinhq/skein-cli/internal/buildinfo"
	"github.com/skeinhq/skein-cli/internal/util"
	log "github.com/sirupsen/logrus"
)

// requestLogID provides sequential IDs for log files when no request ID is supplied.
var requestLogID atomic.Uint64

// FileRequestLogger writes one transcript file per Skein API call when
// request logging is enabled. Transcripts capture the request line, masked
// headers, both bodies (responses decompressed first), and timing, which is
// usually all that is needed to diagnose a misbehaving command.
type FileRequestLogger struct {
	// mu guards enabled and the log directory across goroutines.
	mu sync.Mutex

	// enabled indicates whether request logging is currently enabled.
	enabled bool

	// logsDir is the directory where transcript files are stored.
	logsDir string
}

// NewFileRequestLogger creates a new file-based request logger.
//
// Parameters:
//   - enabled: Whether request logging should be enabled
//   - logsDir: The directory where transcript files should be stored
//
// Returns:
//   - *FileRequestLogger: A new file-based request logger instance
func NewFileRequestLogger(enabled bool, logsDir string) *FileRequestLogger {
	return &FileRequestLogger{
		enabled: enabled,
		logsDir: logsDir,
	}
}

// IsEnabled returns whether request logging is currently enabled.
func (l *FileRequestLogger) IsEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

// SetEnabled updates the request logging enabled state.
func (l *FileRequestLogger) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

// LogCall writes a complete request/response transcript to a file.
//
// Parameters:
//   - url: The request URL
//   - method: The HTTP method
//   - requestHeaders: The request headers (sensitive values are masked)
//   - requestBody: The request body
//   - statusCode: The response status code
//   - responseHeaders: The response headers
//   - responseBody: The raw response data, decompressed before writing
//   - requestID: Request ID used for log file naming
//   - started: When the request was sent
//   - finished: When the response arrived
//
// Returns:
//   - error: An error if logging fails, nil otherwise
func (l *FileRequestLogger) LogCall(url, method string, requestHeaders http.Header, requestBody []byte, statusCode int, responseHeaders http.Header, responseBody []byte, requestID string, started, finished time.Time) error {
	if !l.IsEnabled() {
		return nil
	}

	if errEnsure := l.ensureLogsDir(); errEnsure != nil {
		return fmt.Errorf("failed to create logs directory: %w", errEnsure)
	}

	bodyToWrite, decompressErr := l.decompressResponse(responseHeaders, responseBody)
	if decompressErr != nil {
		// If decompression fails, continue with the original response and annotate the log output.
		bodyToWrite = responseBody
	}

	filePath := filepath.Join(l.logsDir, l.generateFilename(url, requestID))
	logFile, errOpen := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if errOpen != nil {
		return fmt.Errorf("failed to create log file: %w", errOpen)
	}

	writeErr := l.writeTranscript(logFile, url, method, requestHeaders, requestBody, statusCode, responseHeaders, bodyToWrite, decompressErr, started, finished)
	if errClose := logFile.Close(); errClose != nil {
		log.WithError(errClose).Warn("failed to close request log file")
		if writeErr == nil {
			return errClose
		}
	}
	if writeErr != nil {
		return fmt.Errorf("failed to write log file: %w", writeErr)
	}

	return nil
}

// ensureLogsDir creates the logs directory if it doesn't exist.
func (l *FileRequestLogger) ensureLogsDir() error {
	if _, err := os.Stat(l.logsDir); os.IsNotExist(err) {
		return os.MkdirAll(l.logsDir, 0755)
	}
	return nil
}

// generateFilename creates a sanitized filename from the URL path and current timestamp.
// Format: v1-threads-2026-08-19T114207-a1b2c3d4.log
//
// Parameters:
//   - url: The request URL
//   - requestID: Optional request ID to include in the filename
//
// Returns:
//   - string: A sanitized filename for the log file
func (l *FileRequestLogger) generateFilename(url string, requestID string) string {
	path := url
	if strings.Contains(url, "?") {
		path = strings.Split(url, "?")[0]
	}
	if idx := strings.Index(path, "://"); idx != -1 {
		path = path[idx+3:]
		if slash := strings.Index(path, "/"); slash != -1 {
			path = path[slash+1:]
		} else {
			path = ""
		}
	}
	path = strings.TrimPrefix(path, "/")

	sanitized := l.sanitizeForFilename(path)
	timestamp := time.Now().Format("2006-01-02T150405")

	idPart := requestID
	if idPart == "" {
		idPart = fmt.Sprintf("%d", requestLogID.Add(1))
	}

	return fmt.Sprintf("%s-%s-%s.log", sanitized, timestamp, idPart)
}

// sanitizeForFilename replaces characters that are not safe for filenames.
func (l *FileRequestLogger) sanitizeForFilename(path string) string {
	sanitized := strings.ReplaceAll(path, "/", "-")
	sanitized = strings.ReplaceAll(sanitized, ":", "-")

	reg := regexp.MustCompile(`[<>:"|?*\s]`)
	sanitized = reg.ReplaceAllString(sanitized, "-")

	reg = regexp.MustCompile(`-+`)
	sanitized = reg.ReplaceAllString(sanitized, "-")

	sanitized = strings.Trim(sanitized, "-")
	if sanitized == "" {
		sanitized = "root"
	}

	return sanitized
}

// writeTranscript renders the full request/response transcript to w.
func (l *FileRequestLogger) writeTranscript(w io.Writer, url, method string, requestHeaders http.Header, requestBody []byte, statusCode int, responseHeaders http.Header, responseBody []byte, decompressErr error, started, finished time.Time) error {
	var content strings.Builder

	content.WriteString("=== REQUEST INFO ===\n")
	content.WriteString(fmt.Sprintf("Version: %s\n", buildinfo.Version))
	content.WriteString(fmt.Sprintf("URL: %s\n", url))
	content.WriteString(fmt.Sprintf("Method: %s\n", method))
	content.WriteString(fmt.Sprintf("Timestamp: %s\n", started.Format(time.RFC3339Nano)))
	content.WriteString("\n")

	content.WriteString("=== REQUEST HEADERS ===\n")
	for key, values := range requestHeaders {
		for _, value := range values {
			masked := util.MaskSensitiveHeaderValue(key, value)
			content.WriteString(fmt.Sprintf("%s: %s\n", key, masked))
		}
	}
	content.WriteString("\n")

	content.WriteString("=== REQUEST BODY ===\n")
	content.Write(requestBody)
	content.WriteString("\n\n")

	content.WriteString("=== RESPONSE ===\n")
	content.WriteString(fmt.Sprintf("Status: %d\n", statusCode))
	content.WriteString(fmt.Sprintf("Duration: %s\n", finished.Sub(started).Round(time.Millisecond)))
	for key, values := range responseHeaders {
		for _, value := range values {
			content.WriteString(fmt.Sprintf("%s: %s\n", key, value))
		}
	}
	if decompressErr != nil {
		content.WriteString(fmt.Sprintf("DecompressError: %v\n", decompressErr))
	}
	content.WriteString("\n")
	content.Write(responseBody)
	content.WriteString("\n")

	_, err := io.WriteString(w, content.String())
	return err
}

// decompressResponse decompresses response data based on Content-Encoding header.
//
// Parameters:
//   - responseHeaders: The response headers
//   - response: The response data to decompress
//
// Returns:
//   - []byte: The decompressed response data
//   - error: An error if decompression fails, nil otherwise
func (l *FileRequestLogger) decompressResponse(responseHeaders http.Header, response []byte) ([]byte, error) {
	if responseHeaders == nil || len(response) == 0 {
		return response, nil
	}

	var contentEncoding string
	for key, values := range responseHeaders {
		if strings.ToLower(key) == "content-encoding" && len(values) > 0 {
			contentEncoding = strings.ToLower(values[0])
			break
		}
	}

	switch contentEncoding {
	case "gzip":
		return l.decompressGzip(response)
	case "deflate":
		return l.decompressDeflate(response)
	case "br":
		return l.decompressBrotli(response)
	case "zstd":
		return l.decompressZstd(response)
	default:
		// No compression or unsupported compression
		return response, nil
	}
}

// decompressGzip decompresses gzip-encoded data.
func (l *FileRequestLogger) decompressGzip(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer func() {
		if errClose := reader.Close(); errClose != nil {
			log.WithError(errClose).Warn("failed to close gzip reader in request logger")
		}
	}()

	decompressed, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress gzip data: %w", err)
	}

	return decompressed, nil
}

// decompressDeflate decompresses deflate-encoded data.
func (l *FileRequestLogger) decompressDeflate(data []byte) ([]byte, error) {
	reader := flate.NewReader(bytes.NewReader(data))
	defer func() {
		if errClose := reader.Close(); errClose != nil {
			log.WithError(errClose).Warn("failed to close deflate reader in request logger")
		}
	}()

	decompressed, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress deflate data: %w", err)
	}

	return decompressed, nil
}

// decompressBrotli decompresses brotli-encoded data.
func (l *FileRequestLogger) decompressBrotli(data []byte) ([]byte, error) {
	reader := brotli.NewReader(bytes.NewReader(data))

	decompressed, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress brotli data: %w", err)
	}

	return decompressed, nil
}

// decompressZstd decompresses zstd-encoded data.
func (l *FileRequestLogger) decompressZstd(data []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer decoder.Close()

	decompressed, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress zstd data: %w", err)
	}

	return decompressed, nil
}
