/*
Example code showing how to measure skin features in a depth camera capture
and track them across captures.

Run with -synthetic to generate a series of captures of a healing papule, or
supply a color image, depth image and instance segmentation mask.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	lesion "github.com/skinmetric/go-lesion"
	"github.com/skinmetric/go-lesion/depth"
	"github.com/skinmetric/go-lesion/feature"
	"github.com/skinmetric/go-lesion/internal/synth"
	"github.com/skinmetric/go-lesion/metrics"
	"github.com/skinmetric/go-lesion/preprocess"
	"github.com/skinmetric/go-lesion/render"
	"github.com/skinmetric/go-lesion/tracker"
)

func main() {
	// disable logging timestamps
	log.SetFlags(0)

	// read in cli flags
	synthetic := flag.Bool("synthetic", false, "Generate synthetic captures instead of reading files")
	imgFile := flag.String("i", "", "Color image file aligned to the depth image")
	depthFile := flag.String("d", "", "Depth file, 16 bit millimeter PNG, or raw .f16/.f32 meters")
	depthW := flag.Int("dw", 0, "Width of raw .f16/.f32 depth files")
	depthH := flag.Int("dh", 0, "Height of raw .f16/.f32 depth files")
	intrinsicsFile := flag.String("k", "", "Depth sensor intrinsics JSON, omit to use the reference marker")
	segFile := flag.String("s", "", "Instance segmentation mask PNG, pixel value is the 1-based instance")
	classIdx := flag.String("c", "", "Comma separated model class index of each instance")
	labelFile := flag.String("l", "", "Segmentation model labels file")
	exportFile := flag.String("export-input", "", "Write the letterboxed segmentation model input to this file")
	modelSize := flag.Int("model-size", 640, "Segmentation model input size")
	saveFile := flag.String("o", "measure-out.jpg", "Output JPG file with measurement overlay")
	verbose := flag.Bool("v", false, "Enable debug logging")

	flag.Parse()

	logger := newLogger(*verbose)
	defer logger.Sync()

	params := lesion.DefaultParams()
	params.Logger = logger

	proc := lesion.NewProcessor(params)
	defer proc.Close()

	if *synthetic {
		runSynthetic(proc, *saveFile)
		return
	}

	if *imgFile == "" || *depthFile == "" || *segFile == "" {
		log.Fatal("Color image, depth and segmentation files are required, or use -synthetic")
	}

	// load image
	img := gocv.IMRead(*imgFile, gocv.IMReadColor)

	if img.Empty() {
		log.Fatal("Error reading image from: ", *imgFile)
	}

	defer img.Close()

	if *exportFile != "" {
		exportModelInput(img, *modelSize, *exportFile)
	}

	raw, err := loadDepth(*depthFile, *depthW, *depthH)

	if err != nil {
		log.Fatal("Error loading depth: ", err)
	}

	colorImg, err := preprocess.MatToImage(img)

	if err != nil {
		log.Fatal("Error converting image: ", err)
	}

	// bring color to the depth resolution
	aligned := preprocess.AlignColor(colorImg, raw.Width, raw.Height)

	var intr *depth.Intrinsics

	if *intrinsicsFile != "" {
		intr, err = depth.LoadIntrinsicsJSON(*intrinsicsFile)

		if err != nil {
			log.Fatal("Error loading intrinsics: ", err)
		}
	}

	cands, err := loadCandidates(*segFile, *classIdx, *labelFile,
		img.Cols(), img.Rows(), raw.Width, raw.Height)

	if err != nil {
		log.Fatal("Error loading segmentation: ", err)
	}

	res, err := proc.ProcessCapture(context.Background(), lesion.Capture{
		Raw:        raw,
		Color:      aligned,
		Intrinsics: intr,
		Timestamp:  time.Now(),
		Candidates: cands,
	})

	if err != nil {
		log.Fatal("Error processing capture: ", err)
	}

	printResults(res, nil)

	if err := saveOverlay(*saveFile, aligned, res, nil); err != nil {
		log.Fatal(err)
	}

	log.Printf("Saved overlay to %s\n", *saveFile)
	log.Println("done")
}

// newLogger returns a production logger, or a development logger when
// verbose
func newLogger(verbose bool) *zap.Logger {

	var logger *zap.Logger
	var err error

	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}

	if err != nil {
		log.Fatal("Error creating logger: ", err)
	}

	return logger
}

// loadDepth reads raw depth from a half or single float buffer or a depth
// image readable by OpenCV
func loadDepth(file string, width, height int) (*depth.Raw, error) {

	switch strings.ToLower(filepath.Ext(file)) {
	case ".f16", ".f32":
		buf, err := os.ReadFile(file)

		if err != nil {
			return nil, err
		}

		if filepath.Ext(file) == ".f16" {
			return depth.RawFromFloat16Bytes(buf, width, height)
		}

		return depth.RawFromFloat32Bytes(buf, width, height)

	default:
		return preprocess.ReadDepth(file)
	}
}

// loadCandidates reads the instance mask, maps it from the model input back
// to the image when it was produced on a letterboxed input, and resamples it
// to the depth resolution
func loadCandidates(segFile, classList, labelFile string,
	imgW, imgH, depthW, depthH int) ([]feature.Candidate, error) {

	segMat := gocv.IMRead(segFile, gocv.IMReadGrayScale)
	defer segMat.Close()

	if segMat.Empty() {
		return nil, fmt.Errorf("error reading segmentation mask %s", segFile)
	}

	segW, segH := segMat.Cols(), segMat.Rows()
	seg := segMat.ToBytes()

	if segW != imgW || segH != imgH {
		lb := preprocess.NewLetterbox(imgW, imgH, segW, segH)
		seg = lb.SegmentToSource(seg)
		segW, segH = imgW, imgH
	}

	classes := feature.ClassMap(feature.Classes())

	if labelFile != "" {
		var err error
		classes, err = feature.LoadClassMap(labelFile)

		if err != nil {
			return nil, err
		}
	}

	var dets []feature.Detection

	for i, s := range strings.Split(classList, ",") {
		s = strings.TrimSpace(s)

		if s == "" {
			continue
		}

		idx, err := strconv.Atoi(s)

		if err != nil {
			return nil, fmt.Errorf("invalid class index %q: %w", s, err)
		}

		dets = append(dets, feature.Detection{Class: idx, Probability: 1, ID: int64(i + 1)})
	}

	cands := feature.CandidatesFromSegments(dets, seg, segW, segH, classes)

	if segW == depthW && segH == depthH {
		return cands, nil
	}

	for i, c := range cands {
		cands[i] = feature.NewCandidate(c.ID,
			preprocess.AlignMask(c.Mask, depthW, depthH), c.Class, c.Confidence)
	}

	return cands, nil
}

// exportModelInput writes the letterboxed input for the external
// segmentation model
func exportModelInput(img gocv.Mat, size int, file string) {

	resizer := preprocess.NewResizer(img.Cols(), img.Rows(), size, size)
	defer resizer.Close()

	input := gocv.NewMat()
	defer input.Close()

	resizer.LetterBoxResize(img, &input, render.Black)

	if ok := gocv.IMWrite(file, input); !ok {
		log.Fatal("Failed to save the model input image")
	}

	log.Printf("Saved model input to %s, scale=%.3f pad=%d,%d\n",
		file, resizer.Scale, resizer.XPad, resizer.YPad)
}

// runSynthetic processes a week of captures of a shrinking papule next to a
// stable scar, tracks both and reports the healing rate of the papule
func runSynthetic(proc *lesion.Processor, saveFile string) {

	matcher, err := tracker.NewMatcher(tracker.DefaultParams())

	if err != nil {
		log.Fatal(err)
	}

	arena := tracker.NewArena(tracker.DefaultDescriptorAlpha)
	day0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	var last *lesion.CaptureResult
	var lastImg *image.RGBA
	var lastIDs []string

	for day := 0; day < 7; day += 2 {

		scene := synth.Scene{
			Width:   320,
			Height:  240,
			DepthMM: 280,
			TiltX:   0.02,
			Marker:  &synth.Marker{X: 60, Y: 60, R: 28},
			Lesions: []synth.Lesion{
				{X: 180 + float64(day), Y: 120, R: 14 - float64(day), HeightMM: 1.2,
					Color: color.RGBA{R: 205, G: 80, B: 80, A: 255}, Class: feature.ClassPapule},
				{X: 250, Y: 180, R: 9, HeightMM: 0,
					Color: color.RGBA{R: 200, G: 160, B: 150, A: 255}, Class: feature.ClassScar},
			},
		}

		raw, img, cands := scene.Render()

		// fixed appearance per feature stands in for an embedding model
		cands[0] = cands[0].WithSurface(cands[0].SurfaceX, cands[0].SurfaceY, []float32{0.9, 0.1, 0.2})
		cands[1] = cands[1].WithSurface(cands[1].SurfaceX, cands[1].SurfaceY, []float32{0.1, 0.8, 0.3})

		at := day0.Add(time.Duration(day) * 24 * time.Hour)

		// alternate between sensor intrinsics and the marker fallback, the focal
		// length matches what the 10mm marker implies at this depth
		var intr *depth.Intrinsics

		if day%4 == 0 {
			intr = scene.Intrinsics(1575)
		}

		res, err := proc.ProcessCapture(context.Background(), lesion.Capture{
			Raw:        raw,
			Color:      img,
			Intrinsics: intr,
			Timestamp:  at,
			Candidates: cands,
		})

		if err != nil {
			log.Fatal("Error processing capture: ", err)
		}

		obs := make([]tracker.Observation, len(cands))

		for i, c := range cands {
			obs[i] = tracker.ObservationFromCandidate(c)
		}

		results, err := matcher.Match(obs, arena.All())

		if err != nil {
			log.Fatal("Error matching features: ", err)
		}

		ids, err := arena.Apply(at, obs, results, res.Metrics())

		if err != nil {
			log.Fatal("Error tracking features: ", err)
		}

		log.Printf("Day %d (%s calibration):\n", day, res.Method)
		printResults(res, results)

		last, lastImg, lastIDs = res, img, ids
	}

	for _, tf := range arena.All() {
		rate, ok := tf.HealingRate(tracker.Area, 0)

		if !ok {
			log.Printf("%s %s: healing rate not available\n", shortID(tf.ID), tf.Class)
			continue
		}

		log.Printf("%s %s: area %.2f%%/day over %d captures, confidence %.2f\n",
			shortID(tf.ID), tf.Class, rate.PercentPerDay, rate.Points, rate.Confidence)
	}

	if err := saveOverlay(saveFile, lastImg, last, lastIDs); err != nil {
		log.Fatal(err)
	}

	log.Printf("Saved overlay to %s\n", saveFile)
	log.Println("done")
}

// printResults prints the metrics of every feature in a capture
func printResults(res *lesion.CaptureResult, matches []tracker.MatchResult) {

	for i, f := range res.Features {
		m := f.Metrics
		outcome := ""

		if matches != nil {
			outcome = matches[i].Outcome.String()
		}

		log.Printf("  #%d %-8s %-7s diameter=%.2fmm area=%.2fmm2 elevation=%.2fmm volume=%.2fmm3 redness=%.1f circularity=%.2f confidence=%.2f\n",
			f.Candidate.ID, f.Candidate.Class, outcome, m.DiameterMM, m.AreaMM2,
			m.ElevationMM, m.VolumeMM3, m.RednessDelta, m.Circularity, m.Confidence)
	}
}

// saveOverlay renders the feature masks, outlines and marker over the color
// image and writes it to file
func saveOverlay(file string, img image.Image, res *lesion.CaptureResult, ids []string) error {

	mat, err := gocv.ImageToMatRGB(img)

	if err != nil {
		return fmt.Errorf("error converting image to mat: %w", err)
	}

	defer mat.Close()

	cands := make([]feature.Candidate, len(res.Features))
	ms := make([]render.Measurement, len(res.Features))

	for i, f := range res.Features {
		cands[i] = f.Candidate
		ms[i] = render.Measurement{Candidate: f.Candidate, Metrics: f.Metrics}

		if i < len(ids) {
			ms[i].Name = shortID(ids[i])
		}
	}

	render.FeatureMask(&mat, cands, 0.35)

	ringWidth := float64(metrics.DefaultParams().Plane.RingWidth)

	if err := render.FeatureOutlines(&mat, ms, ringWidth, render.DefaultFont(), 1); err != nil {
		return err
	}

	if res.Marker != nil {
		render.Marker(&mat, *res.Marker, render.DefaultFont(), 1)
	}

	return render.OverlayToFile(file, mat)
}

// shortID abbreviates a tracked feature id for display
func shortID(id string) string {

	if len(id) > 8 {
		return id[:8]
	}

	return id
}
