package main

import (
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/menta2k/page-annotator/pkg/graphics"
	"github.com/menta2k/page-annotator/pkg/processing"
	"github.com/menta2k/page-annotator/pkg/types"
)

// createTestPage writes a 100x80 gray PNG with a white block at (10,10)-(40,30)
func createTestPage(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 100, 80))
	for y := 0; y < 80; y++ {
		for x := 0; x < 100; x++ {
			if x >= 10 && x < 40 && y >= 10 && y < 30 {
				img.Set(x, y, color.RGBA{255, 255, 255, 255})
			} else {
				img.Set(x, y, color.RGBA{64, 64, 64, 255})
			}
		}
	}

	path := filepath.Join(t.TempDir(), "page.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseRect(t *testing.T) {
	tests := []struct {
		name    string
		arg     string
		want    types.Rectangle
		wantErr bool
	}{
		{"plain", "10,20,30,40", types.Rect(10, 20, 30, 40), false},
		{"spaces", " 10, 20 ,30 , 40", types.Rect(10, 20, 30, 40), false},
		{"reversed corners", "30,40,10,20", types.Rect(10, 20, 30, 40), false},
		{"negative", "-5,-5,10,10", types.Rect(-5, -5, 10, 10), false},
		{"too few", "1,2,3", types.Rectangle{}, true},
		{"too many", "1,2,3,4,5", types.Rectangle{}, true},
		{"not a number", "1,2,x,4", types.Rectangle{}, true},
		{"float", "1.5,2,3,4", types.Rectangle{}, true},
		{"empty", "", types.Rectangle{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRect(tt.arg)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %q, got %s", tt.arg, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestOfflineSnapshot(t *testing.T) {
	path := createTestPage(t)

	shot, err := offlineSnapshot(processing.NewProcessor(), path, []string{
		"10,10,40,30",
		"0,0,100,80",
		"bogus",
		"-5,-5,10,10",
		"20,20,20,50",
	})
	if err != nil {
		t.Fatalf("offlineSnapshot failed: %v", err)
	}

	if shot.PixelRatio != graphics.DefaultDevicePixelRatio {
		t.Errorf("Expected default pixel ratio, got %v", shot.PixelRatio)
	}
	if len(shot.Elements) != 5 {
		t.Fatalf("Expected 5 elements, got %d", len(shot.Elements))
	}

	block := shot.Elements[0]
	if block.Err != nil {
		t.Fatalf("Unexpected error: %v", block.Err)
	}
	if block.Image.Bounds().Dx() != 30 || block.Image.Bounds().Dy() != 20 {
		t.Errorf("Unexpected element size %v", block.Image.Bounds())
	}
	r, g, b, _ := block.Image.At(0, 0).RGBA()
	if r>>8 != 255 || g>>8 != 255 || b>>8 != 255 {
		t.Error("Expected element to start on the white block")
	}

	if shot.Elements[1].Err != nil {
		t.Errorf("Expected full page box to succeed: %v", shot.Elements[1].Err)
	}
	if shot.Elements[2].Err == nil {
		t.Error("Expected parse error for malformed rect")
	}
	if !errors.Is(shot.Elements[3].Err, graphics.ErrInvalidArgument) {
		t.Errorf("Expected viewport error for negative rect, got %v", shot.Elements[3].Err)
	}
	if !errors.Is(shot.Elements[4].Err, graphics.ErrInvalidArgument) {
		t.Errorf("Expected degenerate error, got %v", shot.Elements[4].Err)
	}
}

func TestOfflineSnapshotMissingFile(t *testing.T) {
	_, err := offlineSnapshot(processing.NewProcessor(), filepath.Join(t.TempDir(), "missing.png"), []string{"0,0,1,1"})
	if err == nil {
		t.Error("Expected error for missing screenshot")
	}
}

func TestWriteSummary(t *testing.T) {
	shot, err := offlineSnapshot(processing.NewProcessor(), createTestPage(t), []string{"10,10,40,30", "bogus"})
	if err != nil {
		t.Fatalf("offlineSnapshot failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "elements.json")
	if err := writeSummary(path, shot); err != nil {
		t.Fatalf("writeSummary failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Elements []struct {
			Selector string `json:"selector"`
			Error    string `json:"error"`
		} `json:"elements"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Invalid summary JSON: %v", err)
	}
	if len(decoded.Elements) != 2 || decoded.Elements[0].Error != "" {
		t.Fatalf("Unexpected summary %s", data)
	}
	if !strings.Contains(decoded.Elements[1].Error, "invalid rect") {
		t.Errorf("Expected parse error in summary, got %q", decoded.Elements[1].Error)
	}
}

func TestWriteSummaryReportsWriteErrors(t *testing.T) {
	shot, err := offlineSnapshot(processing.NewProcessor(), createTestPage(t), nil)
	if err != nil {
		t.Fatalf("offlineSnapshot failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "missing-dir", "elements.json")
	if err := writeSummary(path, shot); err == nil {
		t.Error("Expected error when the output directory does not exist")
	}
}
