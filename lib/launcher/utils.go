package launcher

import (
	"archive/zip"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-rod/calce2e/lib/utils"
)

type progresser struct {
	size   int
	count  int
	logger utils.Logger
	last   time.Time
}

func (p *progresser) Write(b []byte) (n int, err error) {
	n = len(b)

	if p.count == 0 {
		p.logger.Println("Progress:")
	}

	p.count += n

	if p.size <= 0 {
		return
	}

	if p.count == p.size {
		p.logger.Println("100%")
		return
	}

	if time.Since(p.last) < time.Second {
		return
	}

	p.last = time.Now()
	p.logger.Println(fmt.Sprintf("%02d%%", p.count*100/p.size))

	return
}

func toHTTP(u url.URL) *url.URL {
	newURL := u
	if newURL.Scheme == "ws" {
		newURL.Scheme = "http"
	} else if newURL.Scheme == "wss" {
		newURL.Scheme = "https"
	}
	return &newURL
}

func unzip(logger utils.Logger, from, to string) error {
	logger.Println("Unzip to:", to)

	zr, err := zip.OpenReader(from)
	if err != nil {
		return err
	}
	defer func() { _ = zr.Close() }()

	size := 0
	for _, f := range zr.File {
		size += int(f.FileInfo().Size())
	}

	progress := &progresser{size: size, logger: logger}

	root := filepath.Clean(to) + string(os.PathSeparator)

	for _, f := range zr.File {
		p := filepath.Join(to, filepath.FromSlash(f.Name))
		if !strings.HasPrefix(p+string(os.PathSeparator), root) {
			return fmt.Errorf("illegal file path in zip: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			err := os.MkdirAll(p, 0775)
			if err != nil {
				return err
			}
			continue
		}

		err := utils.Mkdir(filepath.Dir(p))
		if err != nil {
			return err
		}

		err = extract(f, p, progress)
		if err != nil {
			return err
		}
	}

	return nil
}

func extract(f *zip.File, p string, progress io.Writer) error {
	r, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	dst, err := os.OpenFile(p, os.O_RDWR|os.O_CREATE|os.O_TRUNC, f.Mode())
	if err != nil {
		return err
	}

	_, err = io.Copy(io.MultiWriter(dst, progress), r)
	if err != nil {
		_ = dst.Close()
		return err
	}

	return dst.Close()
}
