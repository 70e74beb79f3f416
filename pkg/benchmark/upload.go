package benchmark

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mattsolo1/lmbench/pkg/config"
	"gopkg.in/yaml.v3"
)

// Uploader stores result documents on the CDN.
type Uploader interface {
	// Exists reports whether an object is already stored at path.
	Exists(ctx context.Context, path string) (bool, error)
	// Put stores body at path.
	Put(ctx context.Context, path string, body []byte, contentType string) error
}

// HTTPUploader talks to a CDN that accepts HEAD and PUT on object paths,
// authenticating with a bearer token.
type HTTPUploader struct {
	BaseURL   string
	AccessKey string
	Client    *http.Client
}

func (u *HTTPUploader) client() *http.Client {
	if u.Client != nil {
		return u.Client
	}
	return http.DefaultClient
}

func (u *HTTPUploader) objectURL(path string) (string, error) {
	base, err := url.Parse(strings.TrimSuffix(u.BaseURL, "/") + "/")
	if err != nil {
		return "", fmt.Errorf("parse cdn url: %w", err)
	}
	ref, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return "", fmt.Errorf("parse object path: %w", err)
	}
	return base.ResolveReference(ref).String(), nil
}

func (u *HTTPUploader) do(ctx context.Context, method, path string, body []byte, contentType string) (*http.Response, error) {
	target, err := u.objectURL(path)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header.Set("Authorization", "Bearer "+u.AccessKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
		req.ContentLength = int64(len(body))
	}
	resp, err := u.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	return resp, nil
}

// Exists issues a HEAD request for path.
func (u *HTTPUploader) Exists(ctx context.Context, path string) (bool, error) {
	resp, err := u.do(ctx, http.MethodHead, path, nil, "")
	if err != nil {
		return false, err
	}
	resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	default:
		return false, fmt.Errorf("checking %s: unexpected status %s", path, resp.Status)
	}
}

// Put uploads body to path.
func (u *HTTPUploader) Put(ctx context.Context, path string, body []byte, contentType string) error {
	resp, err := u.do(ctx, http.MethodPut, path, body, contentType)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("uploading %s: unexpected status %s", path, resp.Status)
	}
	return nil
}

// uploadRecord is the document stored per method, next to its files.
type uploadRecord struct {
	RunID      string       `yaml:"run_id"`
	Experiment string       `yaml:"experiment"`
	Method     MethodResult `yaml:"method"`
	// Files are relative to results/<experiment>/<method>/.
	Files []string `yaml:"files"`
}

func (s *Local) upload(ctx context.Context, p *plan, cfg *config.Config, results *Results, force bool) error {
	uploader := s.uploader
	if uploader == nil {
		uploader = &HTTPUploader{BaseURL: cfg.CDNURL, AccessKey: s.cdnAccessKey}
	}

	for _, mr := range results.Methods {
		prefix := fmt.Sprintf("results/%s/%s", p.experiment.Name, mr.Name)
		recordPath := prefix + ".yml"
		log := s.log.WithField("method", mr.Name)

		if !force {
			exists, err := uploader.Exists(ctx, recordPath)
			if err != nil {
				return err
			}
			if exists {
				return fmt.Errorf("results for %s on %s are already uploaded (use --force to replace them)", mr.Name, p.experiment.Name)
			}
		}

		files, err := methodFiles(mr.OutputDir)
		if err != nil {
			return err
		}
		for _, rel := range files {
			body, err := os.ReadFile(filepath.Join(mr.OutputDir, filepath.FromSlash(rel)))
			if err != nil {
				return fmt.Errorf("read %s output: %w", mr.Name, err)
			}
			if err := uploader.Put(ctx, prefix+"/"+rel, body, objectContentType(rel)); err != nil {
				return err
			}
			log.Debugf("Uploaded %s/%s", prefix, rel)
		}

		// The record goes last; its presence marks a complete upload.
		record := uploadRecord{RunID: results.RunID, Experiment: results.Experiment, Method: mr, Files: files}
		record.Method.OutputDir = ""
		body, err := yaml.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal upload record: %w", err)
		}
		if err := uploader.Put(ctx, recordPath, body, "application/x-yaml"); err != nil {
			return err
		}
		log.Infof("Uploaded %s (%d files)", recordPath, len(files))
	}
	return nil
}

// methodFiles lists every regular file under dir as a slash separated path
// relative to dir, sorted.
func methodFiles(dir string) ([]string, error) {
	files := []string{}
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list method output %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

func objectContentType(name string) string {
	ext := filepath.Ext(name)
	switch strings.ToLower(ext) {
	case ".yml", ".yaml":
		return "application/x-yaml"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}
