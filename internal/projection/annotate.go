package projection

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/sdg/internal/monitoring"
)

// Annotation is the label record for one rendered snapshot. BBox and
// Categories are index-aligned; objects that are not visible are omitted.
type Annotation struct {
	FileName string            `json:"file_name"`
	Objects  ObjectAnnotations `json:"objects"`
}

// ObjectAnnotations holds the visible objects of a snapshot.
type ObjectAnnotations struct {
	BBox       []BoundingBox `json:"bbox"`
	Categories []int         `json:"categories"`
}

// Len returns the number of annotated objects.
func (a Annotation) Len() int { return len(a.Objects.Categories) }

// AnnotationFileName is the image file name for a snapshot id.
func AnnotationFileName(snapshotID string) string {
	return snapshotID + ".png"
}

// Annotator assembles snapshot annotations. Objects within a snapshot are
// independent, so their boxes are computed concurrently; the resulting
// annotation is always in object order.
type Annotator struct {
	Options BoxOptions
	// Workers bounds concurrent per-object work. Zero means runtime.NumCPU().
	Workers int
	// Warnf receives recoverable configuration warnings. Nil uses monitoring.Opsf.
	Warnf func(format string, args ...interface{})
}

// NewAnnotator returns an Annotator with the given box options.
func NewAnnotator(opts BoxOptions) *Annotator {
	return &Annotator{Options: opts}
}

type objectResult struct {
	box     BoundingBox
	visible bool
}

// Annotate computes the annotation for one snapshot. The category of each
// object is its index in objects. Camera and resolution errors abort the
// whole snapshot and are returned unchanged.
func (a *Annotator) Annotate(ctx context.Context, cameras []CameraSource, objects []MeshSource, fileName string) (Annotation, error) {
	warnf := a.Warnf
	if warnf == nil {
		warnf = monitoring.Opsf
	}
	if err := a.Options.checkResolution(); err != nil {
		return Annotation{}, err
	}

	src, err := SelectCamera(cameras, warnf)
	if err != nil {
		return Annotation{}, err
	}
	cam, err := NewCameraModel(src.WorldTransform(), src.Frustum())
	if err != nil {
		return Annotation{}, err
	}

	workers := a.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]objectResult, len(objects))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, obj := range objects {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			xs, ys := ProjectMesh(obj, cam)
			box, ok, err := ComputeBoundingBox(xs, ys, a.Options)
			if err != nil {
				return err
			}
			monitoring.Tracef("%s: object %d projected %d/%d vertices visible=%t box=%+v",
				fileName, i, len(xs), len(obj.Vertices()), ok, box)
			results[i] = objectResult{box: box, visible: ok}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Annotation{}, err
	}

	ann := Annotation{
		FileName: fileName,
		Objects: ObjectAnnotations{
			BBox:       make([]BoundingBox, 0, len(objects)),
			Categories: make([]int, 0, len(objects)),
		},
	}
	for i, r := range results {
		if !r.visible {
			continue
		}
		ann.Objects.BBox = append(ann.Objects.BBox, r.box)
		ann.Objects.Categories = append(ann.Objects.Categories, i)
	}
	return ann, nil
}
