package fetcher

import (
	"context"
	"io"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/laborstat-cli/internal/config"
)

const defaultFTPTimeout = 30 * time.Second

// WorkbookFetcher downloads the monthly observation workbook from the
// upstream FTP source into the local input directory.
type WorkbookFetcher struct {
	timeout time.Duration
}

// NewWorkbookFetcher builds a fetcher from the input configuration.
func NewWorkbookFetcher(cfg config.InputConfig) *WorkbookFetcher {
	timeout := time.Duration(cfg.FTPTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = defaultFTPTimeout
	}
	return &WorkbookFetcher{timeout: timeout}
}

// parseFTPURL extracts host (with port) and remote path from an FTP URL.
func parseFTPURL(rawURL string) (host string, path string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", eris.Wrap(err, "parse ftp url")
	}
	if u.Scheme != "ftp" {
		return "", "", eris.Errorf("expected ftp scheme, got %q", u.Scheme)
	}

	host = u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}

	path = u.Path
	if path == "" {
		return "", "", eris.New("empty path in ftp url")
	}

	return host, path, nil
}

// ftpConnReader couples the data stream with the control connection so that
// closing the reader also quits the session.
type ftpConnReader struct {
	resp io.ReadCloser
	quit func() error
}

func (r *ftpConnReader) Read(p []byte) (int, error) {
	return r.resp.Read(p)
}

func (r *ftpConnReader) Close() error {
	respErr := r.resp.Close()
	quitErr := r.quit()
	if respErr != nil {
		return eris.Wrap(respErr, "close ftp response")
	}
	if quitErr != nil {
		return eris.Wrap(quitErr, "quit ftp connection")
	}
	return nil
}

// open connects, logs in anonymously, and starts retrieving the remote path.
// The caller must close the returned ReadCloser to release the session.
func (f *WorkbookFetcher) open(ctx context.Context, host, path string) (io.ReadCloser, error) {
	zap.L().Debug("ftp: connecting", zap.String("host", host), zap.String("path", path))

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(f.timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, eris.Wrap(err, "ftp dial")
	}

	if err := conn.Login("anonymous", "anonymous@"); err != nil {
		conn.Quit()
		return nil, eris.Wrap(err, "ftp login")
	}

	resp, err := conn.Retr(path)
	if err != nil {
		conn.Quit()
		return nil, eris.Wrap(err, "ftp retrieve")
	}

	return &ftpConnReader{resp: resp, quit: conn.Quit}, nil
}

// FetchWorkbook downloads the workbook at ftpURL into destDir, keeping the
// remote file name. Only .xlsx files are accepted; anything else upstream is
// not an input this pipeline can read. Returns the local path.
func (f *WorkbookFetcher) FetchWorkbook(ctx context.Context, ftpURL, destDir string) (string, error) {
	host, remotePath, err := parseFTPURL(ftpURL)
	if err != nil {
		return "", err
	}
	if !strings.EqualFold(filepath.Ext(remotePath), ".xlsx") {
		return "", eris.Errorf("ftp: expected an .xlsx workbook, got %q", filepath.Base(remotePath))
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", eris.Wrap(err, "ftp: create input dir")
	}

	rc, err := f.open(ctx, host, remotePath)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	dest := filepath.Join(destDir, filepath.Base(remotePath))
	file, err := os.Create(dest)
	if err != nil {
		return "", eris.Wrap(err, "ftp: create workbook file")
	}
	defer file.Close()

	n, err := io.Copy(file, rc)
	if err != nil {
		return "", eris.Wrap(err, "ftp: write workbook file")
	}

	zap.L().Info("ftp: workbook downloaded",
		zap.String("source", ftpURL),
		zap.String("dest", dest),
		zap.Int64("bytes", n),
	)
	return dest, nil
}
