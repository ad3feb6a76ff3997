// Package profile reads monitor calibration files and keeps the monitors
// built from them.
package profile

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"lenticular-viewmap/internal/viewmap"
)

// section holding the monitor keys in a calibration file
const section = "MonitorConfiguration"

// Defaults used when a key is missing or unparsable.
const (
	DefaultNativeViewcount       = 7
	DefaultAngleRatioNumerator   = 4
	DefaultAngleRatioDenominator = 5
	DefaultLeftLensOrientation   = 1
)

// Calibration holds the [MonitorConfiguration] values of a calibration file.
type Calibration struct {
	HorizontalResolution  int  `json:"horizontal_resolution"`
	VerticalResolution    int  `json:"vertical_resolution"`
	NativeViewcount       int  `json:"native_viewcount"`
	AngleRatioNumerator   int  `json:"angle_ratio_numerator"`
	AngleRatioDenominator int  `json:"angle_ratio_denominator"`
	LeftLensOrientation   int  `json:"left_lens_orientation"`
	BGR                   bool `json:"is_bgr"`
	ViewOrderInverted     bool `json:"view_order_inverted"`
	Rotated               bool `json:"rotated"`
	FullPixel             bool `json:"full_pixel"`
}

// Load reads a calibration file.
func Load(path string) (Calibration, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Calibration{}, fmt.Errorf("profile: read %s: %w", path, err)
	}
	c, err := Parse(raw)
	if err != nil {
		return Calibration{}, fmt.Errorf("profile: parse %s: %w", path, err)
	}
	return c, nil
}

// Parse reads calibration data in INI format. Missing keys get their
// defaults; the resolution stays zero when absent.
func Parse(data []byte) (Calibration, error) {
	v := viper.New()
	v.SetConfigType("ini")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return Calibration{}, err
	}

	get := func(key string, def int) int {
		return readOrDefault(v, key, def)
	}
	return Calibration{
		HorizontalResolution:  get("HorizontalResolution", 0),
		VerticalResolution:    get("VerticalResolution", 0),
		NativeViewcount:       get("NativeViewcount", DefaultNativeViewcount),
		AngleRatioNumerator:   get("AngleRatioNumerator", DefaultAngleRatioNumerator),
		AngleRatioDenominator: get("AngleRatioDenominator", DefaultAngleRatioDenominator),
		LeftLensOrientation:   get("LeftLensOrientation", DefaultLeftLensOrientation),
		BGR:                   get("isBGR", 0) != 0,
		ViewOrderInverted:     get("ViewOrderInverted", 0) != 0,
		Rotated:               get("Rotated", 0) != 0,
		FullPixel:             get("FullPixel", 0) != 0,
	}, nil
}

// readOrDefault parses a value as int, then as float (truncated, decimal
// comma allowed), then as bool.
func readOrDefault(v *viper.Viper, key string, def int) int {
	k := section + "." + key
	if !v.IsSet(k) {
		return def
	}
	s := strings.TrimSpace(v.GetString(k))
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64); err == nil {
		return int(f)
	}
	if b, err := strconv.ParseBool(s); err == nil {
		if b {
			return 1
		}
		return 0
	}
	return def
}

// MonitorParams converts the calibration into monitor parameters. The lens
// width is the angle ratio denominator; the numerator is the angle counter,
// negated unless the lens leans left.
func (c Calibration) MonitorParams() viewmap.MonitorParams {
	angle := int32(c.AngleRatioNumerator)
	if c.LeftLensOrientation != 1 {
		angle = -angle
	}
	return viewmap.MonitorParams{
		PixelCountX:       clampUint32(c.HorizontalResolution),
		PixelCountY:       clampUint32(c.VerticalResolution),
		ViewCount:         uint16(max(0, min(c.NativeViewcount, 0xFFFF))),
		LensWidth:         clampUint32(c.AngleRatioDenominator),
		LensAngleCounter:  angle,
		ViewOrderInverted: c.ViewOrderInverted,
		Rotated:           c.Rotated,
		FullPixel:         c.FullPixel,
		BGR:               c.BGR,
	}
}

func clampUint32(v int) uint32 {
	if v < 0 {
		return 0
	}
	return uint32(v)
}
