// Package projection computes 2D bounding boxes of scene objects as they
// appear in a camera frame.
//
// The pipeline per object is:
//
//	CameraModel       world-to-camera transform + view frame
//	ProjectVertices   mesh vertices -> normalized frame coordinates
//	ComputeBoundingBox coordinates -> clipped box, or not visible
//	Annotator         all objects of a snapshot -> Annotation
//
// Nothing in this package holds state between calls. Callers supply fresh
// transforms and vertex slices for every snapshot.
package projection
