package benchmark

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/mattsolo1/lmbench/pkg/exec"
	"gopkg.in/yaml.v3"
)

// BBoxOptions controls SaveBoundingBoxes.
type BBoxOptions struct {
	// Synthesize falls back to the ground truth landmarks when the detector
	// fails on an image.
	Synthesize bool
	Overwrite  bool
}

// BBoxSummary counts what SaveBoundingBoxes did.
type BBoxSummary struct {
	Written     int
	Synthesized int
	Skipped     int
	// Problematic lists images for which no bounding box could be produced.
	Problematic []string
}

// BoundingBox is the document written next to each image.
type BoundingBox struct {
	Detector    string     `yaml:"detector"`
	Image       string     `yaml:"image"`
	Synthesized bool       `yaml:"synthesized,omitempty"`
	Min         [2]float64 `yaml:"min,flow"`
	Max         [2]float64 `yaml:"max,flow"`
}

// BBoxPath returns where the bounding box of image from detector is stored.
func BBoxPath(image, detector string) string {
	return strings.TrimSuffix(image, filepath.Ext(image)) + "_" + detector + ".bbox.yml"
}

// SaveBoundingBoxes runs detector over each file matching pattern and writes
// one bounding box file per image.
func (s *Local) SaveBoundingBoxes(ctx context.Context, detector, pattern string, opts BBoxOptions) (*BBoxSummary, error) {
	def, err := s.registry.LoadDefinition(KindDetector, detector)
	if err != nil {
		return nil, err
	}

	images, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}
	images = filterImages(images)
	if len(images) == 0 {
		return nil, fmt.Errorf("no images match %s", pattern)
	}

	log := s.log.WithField("detector", def.Name)
	summary := &BBoxSummary{}
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out := BBoxPath(img, def.Name)
		if !opts.Overwrite {
			if _, err := os.Stat(out); err == nil {
				summary.Skipped++
				continue
			}
		}
		log.Debugf("Processing image %d (%s)", i+1, filepath.Base(img))

		box, err := s.detect(ctx, def, img)
		if err != nil {
			log.WithField("image", img).Warnf("Detector failed: %v", err)
			if !opts.Synthesize {
				summary.Problematic = append(summary.Problematic, img)
				continue
			}
			box, err = synthesizeBox(img)
			if err != nil {
				log.WithField("image", img).Warnf("Could not synthesize bounding box: %v", err)
				summary.Problematic = append(summary.Problematic, img)
				continue
			}
			summary.Synthesized++
		}
		box.Detector = def.Name
		box.Image = filepath.Base(img)

		data, err := yaml.Marshal(box)
		if err != nil {
			return nil, fmt.Errorf("marshal bounding box: %w", err)
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return nil, fmt.Errorf("write bounding box: %w", err)
		}
		summary.Written++
	}
	return summary, nil
}

// filterImages drops bounding box and landmark files that a broad pattern
// such as "faces/*" also matches.
func filterImages(paths []string) []string {
	var images []string
	for _, p := range paths {
		if strings.HasSuffix(p, ".bbox.yml") || strings.EqualFold(filepath.Ext(p), ".pts") {
			continue
		}
		if info, err := os.Stat(p); err != nil || info.IsDir() {
			continue
		}
		images = append(images, p)
	}
	sort.Strings(images)
	return images
}

func (s *Local) detect(ctx context.Context, def *Definition, image string) (*BoundingBox, error) {
	args := append(append([]string{}, def.Command[1:]...), absPath(image))
	out, err := s.executor.Execute(ctx, exec.Command{
		Name: def.Command[0],
		Args: args,
		Dir:  filepath.Dir(absPath(def.Path)),
	})
	if err != nil {
		return nil, err
	}
	return parseBox(string(out))
}

// parseBox reads "x0 y0 x1 y1" from detector output.
func parseBox(out string) (*BoundingBox, error) {
	fields := strings.Fields(out)
	if len(fields) != 4 {
		return nil, fmt.Errorf("detector printed %d values, want 4 (x0 y0 x1 y1)", len(fields))
	}
	var v [4]float64
	for i, f := range fields {
		n, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("detector output %q is not a number", f)
		}
		v[i] = n
	}
	if v[0] > v[2] || v[1] > v[3] {
		return nil, errors.New("detector returned an inverted bounding box")
	}
	return &BoundingBox{Min: [2]float64{v[0], v[1]}, Max: [2]float64{v[2], v[3]}}, nil
}

// synthesizeBox bounds the ground truth landmarks stored next to image.
func synthesizeBox(image string) (*BoundingBox, error) {
	ptsPath := strings.TrimSuffix(image, filepath.Ext(image)) + ".pts"
	f, err := os.Open(ptsPath)
	if err != nil {
		return nil, fmt.Errorf("no ground truth landmarks: %w", err)
	}
	defer f.Close()

	points, err := parsePTS(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ptsPath, err)
	}

	box := &BoundingBox{
		Synthesized: true,
		Min:         [2]float64{math.Inf(1), math.Inf(1)},
		Max:         [2]float64{math.Inf(-1), math.Inf(-1)},
	}
	for _, p := range points {
		box.Min[0] = math.Min(box.Min[0], p[0])
		box.Min[1] = math.Min(box.Min[1], p[1])
		box.Max[0] = math.Max(box.Max[0], p[0])
		box.Max[1] = math.Max(box.Max[1], p[1])
	}
	return box, nil
}

// parsePTS reads the points between the braces of a .pts landmark file.
func parsePTS(r io.Reader) ([][2]float64, error) {
	var points [][2]float64
	inside := false
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "{":
			inside = true
			continue
		case line == "}":
			inside = false
			continue
		case !inside || line == "":
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("malformed point %q", line)
		}
		x, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("malformed point %q", line)
		}
		y, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("malformed point %q", line)
		}
		points = append(points, [2]float64{x, y})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, errors.New("no points found")
	}
	return points, nil
}
