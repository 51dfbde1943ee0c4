// Package geometry computes thumbnail crop windows and scaled render sizes.
//
// All functions are pure. Sizes are in pixels, texture coordinates are
// normalized to [0,1].
package geometry

import "math"

// Vec2 is a 2D size or coordinate.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Scale multiplies both components by f.
func (v Vec2) Scale(f float64) Vec2 {
	return Vec2{X: v.X * f, Y: v.Y * f}
}

// CropRatio returns the centered texture window (uv0 top-left, uv1
// bottom-right) whose aspect matches the target box.
//
// The two branches intentionally differ: a wider source divides the aspect
// delta by the source aspect, a taller source multiplies by it. Both are kept
// as-is because they define the current crop look.
func CropRatio(sourceW, sourceH, targetW, targetH float64) (uv0, uv1 Vec2) {
	left, top, right, bottom := 0.0, 0.0, 1.0, 1.0

	if sourceW <= 0 || sourceH <= 0 || targetW <= 0 || targetH <= 0 {
		return Vec2{X: left, Y: top}, Vec2{X: right, Y: bottom}
	}

	sourceAspect := sourceW / sourceH
	targetAspect := targetW / targetH

	switch {
	case sourceAspect > targetAspect:
		half := math.Abs(targetAspect-sourceAspect) / sourceAspect / 2
		left = half
		right = 1 - half
	case sourceAspect < targetAspect:
		half := math.Abs(targetAspect-sourceAspect) * sourceAspect / 2
		top = half
		bottom = 1 - half
	}

	return Vec2{X: left, Y: top}, Vec2{X: right, Y: bottom}
}

// ScaleToFit scales the source size against target. With both axes
// constrained the smaller ratio wins; with one axis only that axis's ratio is
// applied; with none the source size is returned unchanged.
func ScaleToFit(sourceW, sourceH float64, target Vec2, constrainWidth, constrainHeight bool) Vec2 {
	if sourceW <= 0 || sourceH <= 0 {
		return Vec2{X: sourceW, Y: sourceH}
	}

	ratioX := target.X / sourceW
	ratioY := target.Y / sourceH

	var ratio float64
	switch {
	case constrainWidth && constrainHeight:
		ratio = math.Min(ratioX, ratioY)
	case constrainWidth:
		ratio = ratioX
	case constrainHeight:
		ratio = ratioY
	default:
		return Vec2{X: sourceW, Y: sourceH}
	}

	return Vec2{X: sourceW * ratio, Y: sourceH * ratio}
}

// ScaleDownIfLarger returns the source size when it fits within bound, else
// the size scaled to fit with both axes constrained.
func ScaleDownIfLarger(sourceW, sourceH float64, bound Vec2) Vec2 {
	if sourceW > bound.X || sourceH > bound.Y {
		return ScaleToFit(sourceW, sourceH, bound, true, true)
	}
	return Vec2{X: sourceW, Y: sourceH}
}

// ResizeKeepingAspect returns a new box of the given width whose height keeps
// the aspect of prev. A non-positive width returns prev unchanged.
func ResizeKeepingAspect(prev Vec2, width float64) Vec2 {
	if width <= 0 || prev.X <= 0 {
		return prev
	}
	return Vec2{X: width, Y: prev.Y / (prev.X / width)}
}

// PixelRect converts a texture window to integer pixel bounds for an image of
// the given size.
func PixelRect(uv0, uv1 Vec2, width, height int) (x0, y0, x1, y1 int) {
	x0 = int(math.Round(uv0.X * float64(width)))
	y0 = int(math.Round(uv0.Y * float64(height)))
	x1 = int(math.Round(uv1.X * float64(width)))
	y1 = int(math.Round(uv1.Y * float64(height)))
	return x0, y0, x1, y1
}
