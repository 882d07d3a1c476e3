package asset

import (
	"context"
	"io"
	"io/fs"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
)

// Paths names the assets inside the asset file system. Material may be
// empty.
type Paths struct {
	Model          string
	Material       string
	Texture        string
	VertexShader   string
	FragmentShader string
}

type Assets struct {
	Model          Model
	Texture        Pixels
	VertexShader   []byte
	FragmentShader []byte
}

// LoadShader reads a SPIR-V blob, which must be a whole number of 32-bit
// words.
func LoadShader(fsys fs.FS, path string) ([]byte, error) {
	code, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, errors.Wrapf(err, "read shader %s", path)
	}
	if len(code) == 0 || len(code)%4 != 0 {
		return nil, errors.Newf("shader %s is %d bytes, not a whole number of words", path, len(code))
	}
	return code, nil
}

// Load reads every asset concurrently.
func Load(ctx context.Context, fsys fs.FS, paths Paths) (*Assets, error) {
	assets := &Assets{}
	g, gctx := errgroup.WithContext(ctx)
	load := func(fn func() error) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn()
		})
	}

	load(func() error {
		objFile, err := fsys.Open(paths.Model)
		if err != nil {
			return errors.Wrap(err, "open model")
		}
		defer objFile.Close()

		var mtl io.Reader
		if paths.Material != "" {
			mtlFile, err := fsys.Open(paths.Material)
			if err != nil {
				return errors.Wrap(err, "open material")
			}
			defer mtlFile.Close()
			mtl = mtlFile
		}
		assets.Model, err = LoadModel(objFile, mtl)
		return errors.Wrapf(err, "load model %s", paths.Model)
	})
	load(func() error {
		f, err := fsys.Open(paths.Texture)
		if err != nil {
			return errors.Wrap(err, "open texture")
		}
		defer f.Close()
		assets.Texture, err = DecodeTexture(f)
		return errors.Wrapf(err, "load texture %s", paths.Texture)
	})
	load(func() error {
		var err error
		assets.VertexShader, err = LoadShader(fsys, paths.VertexShader)
		return err
	})
	load(func() error {
		var err error
		assets.FragmentShader, err = LoadShader(fsys, paths.FragmentShader)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return assets, nil
}
