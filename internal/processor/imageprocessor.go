// imageprocessor.go - Optional image preprocessing before a capture is sent for recognition

package processor

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"

	"github.com/disintegration/imaging"
)

// PreprocessOptions controls PreprocessDataURL
type PreprocessOptions struct {
	MaxDimension int  // longest side after resize; 0 disables resizing
	Enhance      bool // adaptive sharpen/contrast based on measured quality
}

// PreprocessDataURL decodes a captured image, resizes and optionally enhances it, and
// re-encodes it as a data URL. Images that cannot be decoded are returned unchanged.
func PreprocessDataURL(dataURL string, opts PreprocessOptions) (string, error) {
	parsed, err := ParseDataURL(dataURL)
	if err != nil {
		return "", err
	}

	img, err := imaging.Decode(bytes.NewReader(parsed.Data), imaging.AutoOrientation(true))
	if err != nil {
		return dataURL, nil
	}

	img = resizeToFit(img, opts.MaxDimension)

	if opts.Enhance {
		qualityScore := analyzeImageQuality(img)
		switch {
		case qualityScore < 50:
			img = applyAggressiveEnhancement(img)
		case qualityScore < 75:
			img = applyStandardEnhancement(img)
		default:
			img = applyLightEnhancement(img)
		}
	}

	var buf bytes.Buffer
	mimeType := "image/jpeg"
	if parsed.MIMEType == "image/png" {
		err = png.Encode(&buf, img)
		mimeType = "image/png"
	} else {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 92})
	}
	if err != nil {
		return "", fmt.Errorf("failed to encode processed image: %w", err)
	}

	return BuildDataURL(mimeType, buf.Bytes()), nil
}

func resizeToFit(img image.Image, maxDimension int) image.Image {
	if maxDimension <= 0 {
		return img
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width <= maxDimension && height <= maxDimension {
		return img
	}
	if width > height {
		return imaging.Resize(img, maxDimension, 0, imaging.Lanczos)
	}
	return imaging.Resize(img, 0, maxDimension, imaging.Lanczos)
}

// analyzeImageQuality analyzes image and returns quality score (0-100)
func analyzeImageQuality(img image.Image) float64 {
	bounds := img.Bounds()

	var totalBrightness float64
	var minBrightness float64 = 255
	var maxBrightness float64 = 0
	pixelCount := 0

	// Sample every 10th pixel
	for y := bounds.Min.Y; y < bounds.Max.Y; y += 10 {
		for x := bounds.Min.X; x < bounds.Max.X; x += 10 {
			r, g, b, _ := img.At(x, y).RGBA()
			brightness := (float64(r>>8) + float64(g>>8) + float64(b>>8)) / 3.0

			totalBrightness += brightness
			if brightness < minBrightness {
				minBrightness = brightness
			}
			if brightness > maxBrightness {
				maxBrightness = brightness
			}
			pixelCount++
		}
	}

	if pixelCount == 0 {
		return 0
	}

	avgBrightness := totalBrightness / float64(pixelCount)
	contrast := maxBrightness - minBrightness

	// Ideal: avgBrightness = 128, contrast = 200+
	brightnessScore := 100.0 - math.Abs(avgBrightness-128.0)/1.28
	contrastScore := math.Min(contrast/2.0, 100.0)

	return (brightnessScore * 0.4) + (contrastScore * 0.6)
}

// applyLightEnhancement for good quality captures. Color is kept.
func applyLightEnhancement(img image.Image) image.Image {
	result := imaging.Sharpen(img, 1.5)
	result = imaging.AdjustContrast(result, 15)
	return result
}

func applyStandardEnhancement(img image.Image) image.Image {
	result := imaging.Sharpen(img, 2.5)
	result = imaging.AdjustContrast(result, 30)
	result = imaging.AdjustBrightness(result, 10)
	result = imaging.AdjustGamma(result, 1.1)
	return result
}

// applyAggressiveEnhancement for dark or washed out captures
func applyAggressiveEnhancement(img image.Image) image.Image {
	result := imaging.Sharpen(img, 3.5)
	result = imaging.AdjustContrast(result, 50)
	result = imaging.AdjustBrightness(result, 20)
	result = imaging.AdjustGamma(result, 1.25)
	result = imaging.Blur(result, 0.5)    // remove small noise
	result = imaging.Sharpen(result, 2.0) // re-sharpen edges
	return result
}
