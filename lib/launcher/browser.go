package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/go-rod/calce2e/lib/defaults"
	"github.com/go-rod/calce2e/lib/utils"
)

// DefaultRevision of the pinned chromium, the harness is tested against it
const DefaultRevision = 1321438

// Host formats the download url of a revision
type Host func(revision int) string

var hostConf = map[string]struct {
	urlPrefix string
	zipName   string
}{
	"darwin":  {"Mac", "chrome-mac.zip"},
	"linux":   {"Linux_x64", "chrome-linux.zip"},
	"windows": {"Win", "chrome-win.zip"},
}

// HostGoogle to download browser
func HostGoogle(revision int) string {
	conf := hostConf[runtime.GOOS]
	return fmt.Sprintf(
		"https://storage.googleapis.com/chromium-browser-snapshots/%s/%d/%s",
		conf.urlPrefix, revision, conf.zipName,
	)
}

// HostNPM to download browser
func HostNPM(revision int) string {
	conf := hostConf[runtime.GOOS]
	return fmt.Sprintf(
		"https://registry.npmmirror.com/-/binary/chromium-browser-snapshots/%s/%d/%s",
		conf.urlPrefix, revision, conf.zipName,
	)
}

// Browser is a helper to resolve the browser executable.
// The pinned revision is preferred, it's downloaded into Dir when it's missing.
// If that fails the system browser is used.
type Browser struct {
	Context context.Context

	// Hosts to download browser
	Hosts []Host

	// Revision of the browser to use
	Revision int

	// Dir to cache the downloaded browsers, default is filepath.Join(os.TempDir(), "calce2e", "browser")
	Dir string

	// Logger to print the progress
	Logger utils.Logger

	// HTTPClient for the download
	HTTPClient *http.Client

	// ExecSearchMap is the system browsers to look for on each OS
	ExecSearchMap map[string][]string
}

// NewBrowser with default values
func NewBrowser() *Browser {
	dir := defaults.Dir
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "calce2e", "browser")
	}

	revision := defaults.Revision
	if revision == 0 {
		revision = DefaultRevision
	}

	return &Browser{
		Context:  context.Background(),
		Revision: revision,
		Hosts:    []Host{HostGoogle, HostNPM},
		Dir:      dir,
		Logger:   utils.LoggerQuiet,
		HTTPClient: &http.Client{
			Transport: &http.Transport{
				DisableKeepAlives: true,
				IdleConnTimeout:   30 * time.Second,
			},
		},
		ExecSearchMap: map[string][]string{
			"darwin": {
				"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
				"/Applications/Chromium.app/Contents/MacOS/Chromium",
				"/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge",
			},
			"linux": {
				"chrome",
				"google-chrome",
				"/usr/bin/google-chrome",
				"chromium",
				"chromium-browser",
				"/usr/bin/chromium",
				"/usr/bin/chromium-browser",
				"microsoft-edge",
			},
			"windows": append([]string{"chrome", "edge"}, expandWindowsExePaths(
				`Google\Chrome\Application\chrome.exe`,
				`Chromium\Application\chrome.exe`,
				`Microsoft\Edge\Application\msedge.exe`,
			)...),
		},
	}
}

// Destination of the downloaded revision
func (lc *Browser) Destination() string {
	return filepath.Join(lc.Dir, fmt.Sprintf("chromium-%d", lc.Revision))
}

// BinPath to the pinned browser executable
func (lc *Browser) BinPath() string {
	bin := map[string]string{
		"darwin":  "chrome-mac/Chromium.app/Contents/MacOS/Chromium",
		"linux":   "chrome-linux/chrome",
		"windows": "chrome-win/chrome.exe",
	}[runtime.GOOS]

	return filepath.Join(lc.Destination(), filepath.FromSlash(bin))
}

// Download the pinned revision, each host is tried in order
func (lc *Browser) Download() error {
	var errs []error

	for _, host := range lc.Hosts {
		u := host(lc.Revision)
		err := lc.download(u)
		if err != nil {
			lc.Logger.Println("Download failed:", u, err)
			errs = append(errs, err)
			continue
		}
		return nil
	}

	if len(errs) == 0 {
		return errors.New("no host to download the browser from")
	}
	return fmt.Errorf("failed to download the browser: %w", errors.Join(errs...))
}

func (lc *Browser) download(u string) error {
	lc.Logger.Println("Download:", u)

	err := utils.Mkdir(lc.Dir)
	if err != nil {
		return err
	}

	zipFile, err := os.CreateTemp(lc.Dir, fmt.Sprintf("chromium-%d-*.zip", lc.Revision))
	if err != nil {
		return err
	}
	zipPath := zipFile.Name()
	defer func() { _ = os.Remove(zipPath) }()

	err = lc.fetch(u, zipFile)
	closeErr := zipFile.Close()
	if err != nil {
		return err
	}
	if closeErr != nil {
		return closeErr
	}

	lc.Logger.Println("Downloaded:", zipPath)

	// unzip into a sibling dir first, a half extracted browser must never be seen as the pinned one
	tmp := lc.Destination() + ".tmp"
	_ = os.RemoveAll(tmp)
	err = unzip(lc.Logger, zipPath, tmp)
	if err != nil {
		_ = os.RemoveAll(tmp)
		return err
	}

	_ = os.RemoveAll(lc.Destination())
	err = os.Rename(tmp, lc.Destination())
	if err != nil {
		return err
	}

	if !utils.FileExists(lc.BinPath()) {
		return fmt.Errorf("the archive doesn't contain %s", lc.BinPath())
	}
	return nil
}

func (lc *Browser) fetch(u string, w io.Writer) error {
	ctx := lc.Context
	if ctx == nil {
		ctx = context.Background()
	}

	q, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	client := lc.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	res, err := client.Do(q)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", res.StatusCode, u)
	}

	size, err := strconv.ParseInt(res.Header.Get("Content-Length"), 10, 64)
	if err != nil {
		size = -1
	}

	progress := &progresser{
		size:   int(size),
		logger: lc.Logger,
	}

	_, err = io.Copy(io.MultiWriter(w, progress), res.Body)
	return err
}

// LookPath searches the system browsers, the first one found is returned
func (lc *Browser) LookPath() (found string, has bool) {
	for _, p := range lc.ExecSearchMap[runtime.GOOS] {
		bin, err := exec.LookPath(p)
		if err == nil {
			return bin, true
		}
	}
	return "", false
}

// Get is a smart helper to get the browser executable path.
// It returns the pinned revision when it's already in Dir, otherwise it tries to download it.
// When the download fails it falls back to the browser installed on the system.
// If both fail the error wraps ErrBrowserNotFound.
func (lc *Browser) Get() (string, error) {
	pinned := lc.BinPath()
	if utils.FileExists(pinned) {
		return pinned, nil
	}

	errDownload := lc.Download()
	if errDownload == nil {
		return pinned, nil
	}

	if found, has := lc.LookPath(); has {
		lc.Logger.Println("Use the system browser:", found)
		return found, nil
	}

	return "", fmt.Errorf("%w: %v; no system browser in %v",
		ErrBrowserNotFound, errDownload, lc.ExecSearchMap[runtime.GOOS])
}

// MustGet is similar to Get
func (lc *Browser) MustGet() string {
	p, err := lc.Get()
	utils.E(err)
	return p
}

// LookPath searches the system browsers with the default search map
func LookPath() (found string, has bool) {
	return NewBrowser().LookPath()
}

func expandWindowsExePaths(list ...string) []string {
	newList := []string{}
	for _, p := range list {
		newList = append(
			newList,
			filepath.Join(os.Getenv("ProgramFiles"), p),
			filepath.Join(os.Getenv("ProgramFiles(x86)"), p),
			filepath.Join(os.Getenv("LocalAppData"), p),
		)
	}
	return newList
}
