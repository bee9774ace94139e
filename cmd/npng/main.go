// Command npng converts ordinary raster images to and from the .npng
// container format. It is a thin front end over the npng package: all it
// does is read files, call Encode/Decode, and write files.
package main

import (
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/vp8l"
	_ "golang.org/x/image/webp"
	"sigs.k8s.io/yaml"

	"github.com/svanichkin/npng"
)

var cli struct {
	Encode encodeCmd `cmd:"" help:"Encode an image file (png, jpeg, gif, bmp, tiff, webp) into .npng."`
	Decode decodeCmd `cmd:"" help:"Decode a .npng file back into an image."`
}

type encodeCmd struct {
	Input     string `arg:"" help:"Input image file."`
	Output    string `help:"Output .npng path. Defaults to the input name with a .npng extension."`
	Encoding  string `help:"Pixel payload compression." enum:"plain,zlib,zstd" default:"zstd"`
	NoAlpha   bool   `help:"Store 3-byte RGB colors and drop the alpha channel."`
	Varint    bool   `help:"Store coordinates as varints (not recommended)."`
	CreatedIn string `help:"Origin tag written into the metadata." default:"npng-cli"`
	Meta      string `help:"YAML file with extra string/string metadata annotations."`
	Overwrite bool   `help:"Overwrite the output file if it exists."`
}

func (c *encodeCmd) Run() error {
	enc, err := npng.ParseEncoding(c.Encoding)
	if err != nil {
		return err
	}

	meta := npng.Metadata{CreatedIn: c.CreatedIn}
	if c.Meta != "" {
		raw, err := os.ReadFile(c.Meta)
		if err != nil {
			return fmt.Errorf("could not read metadata file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &meta.Extra); err != nil {
			return fmt.Errorf("could not parse metadata file %q: %w", c.Meta, err)
		}
	}

	in, err := os.Open(c.Input)
	if err != nil {
		return err
	}
	defer in.Close()

	src, format, err := image.Decode(in)
	if err != nil {
		return fmt.Errorf("could not decode %q: %w", c.Input, err)
	}

	img, err := npng.FromImage(src, meta)
	if err != nil {
		return err
	}

	cfg := npng.Config{Alpha: !c.NoAlpha, Varint: c.Varint, Encoding: enc}
	data, err := npng.Encode(img.Pixels, img.Meta, cfg)
	if err != nil {
		return err
	}

	out := c.Output
	if out == "" {
		out = strings.TrimSuffix(c.Input, filepath.Ext(c.Input)) + ".npng"
	}
	if err := writeFile(out, data, c.Overwrite); err != nil {
		return err
	}

	slog.Info("encoded", "input", c.Input, "format", format, "output", out,
		"encoding", enc.String(), "alpha", !c.NoAlpha, "bytes", len(data))
	return nil
}

type decodeCmd struct {
	Input          string `arg:"" help:"Input .npng file."`
	Output         string `help:"Output image path; the extension picks the format (png, jpeg, gif, bmp, tiff). Defaults to the input name with a .png extension."`
	IgnoreChecksum bool   `help:"Skip CRC verification (only for salvaging damaged files)."`
	Overwrite      bool   `help:"Overwrite the output file if it exists."`
}

func (c *decodeCmd) Run() error {
	data, err := os.ReadFile(c.Input)
	if err != nil {
		return err
	}

	img, err := npng.DecodeWithOptions(data, npng.DecodeOptions{IgnoreChecksum: c.IgnoreChecksum})
	if err != nil {
		return err
	}

	out := c.Output
	if out == "" {
		out = strings.TrimSuffix(c.Input, filepath.Ext(c.Input)) + ".png"
	}
	if err := saveImage(out, img.ToRGBA(), c.Overwrite); err != nil {
		return err
	}

	slog.Info("decoded", "input", c.Input, "output", out,
		"canvas", fmt.Sprintf("%dx%d", img.Meta.Width, img.Meta.Height),
		"pixels", len(img.Pixels), "created_in", img.Meta.CreatedIn,
		"version", fmt.Sprintf("%d.%d", img.Version.Major, img.Version.Minor))
	return nil
}

func writeFile(path string, data []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("output file %q already exists", path)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func saveImage(path string, img image.Image, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("output file %q already exists", path)
		}
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		err = png.Encode(out, img)
	case ".jpg", ".jpeg":
		err = jpeg.Encode(out, img, nil)
	case ".gif":
		err = gif.Encode(out, img, nil)
	case ".bmp":
		err = bmp.Encode(out, img)
	case ".tif", ".tiff":
		err = tiff.Encode(out, img, nil)
	default:
		err = fmt.Errorf("unsupported output format %q", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("could not save %q: %w", path, err)
	}
	return nil
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("npng"),
		kong.Description("Sparse raster image container codec."),
		kong.UsageOnError())
	if err := ctx.Run(); err != nil {
		slog.Error("failed", "error", err)
		os.Exit(1)
	}
}
