package metrics

import (
	"math"

	"github.com/okieraised/fatigue-agent/internal/vision/landmark"
	"gonum.org/v1/gonum/mat"
)

// Canonical 6-point face model, millimetre-scale, nose tip at origin.
// Order: nose tip, chin, left eye outer corner, right eye outer corner,
// left mouth corner, right mouth corner.
var faceModel = [6][3]float64{
	{0.0, 0.0, 0.0},
	{0.0, -330.0, -65.0},
	{-225.0, 170.0, -135.0},
	{225.0, 170.0, -135.0},
	{-150.0, -150.0, -125.0},
	{150.0, -150.0, -125.0},
}

const (
	pnpMaxIterations = 30
	pnpConvergence   = 1e-7
	pnpDamping       = 1e-3
	pnpMinDepth      = 1.0
)

// poseSolver estimates head pose by fitting a rigid transform of faceModel to
// the observed 2-D pose landmarks (Perspective-n-Point). The solve is a
// damped Gauss-Newton iteration over a Rodrigues rotation vector plus
// translation, using a numeric Jacobian.
type poseSolver struct {
	jac  *mat.Dense
	res  *mat.VecDense
	nrm  *mat.Dense
	rhs  *mat.VecDense
	step *mat.VecDense
}

func newPoseSolver() *poseSolver {
	return &poseSolver{
		jac:  mat.NewDense(12, 6, nil),
		res:  mat.NewVecDense(12, nil),
		nrm:  mat.NewDense(6, 6, nil),
		rhs:  mat.NewVecDense(6, nil),
		step: mat.NewVecDense(6, nil),
	}
}

// pitch returns the head pitch angle in degrees, or ok=false when the pose
// landmarks are missing or the geometry is degenerate.
func (p *poseSolver) pitch(set *landmark.Set, width, height int) (float64, bool) {
	imagePoints, ok := poseImagePoints(set)
	if !ok {
		return 0, false
	}

	// Pinhole intrinsics: focal length approximated by frame width,
	// principal point at the frame center, zero distortion.
	focal := float64(width)
	cx := float64(width) / 2
	cy := float64(height) / 2
	if focal <= 0 {
		return 0, false
	}

	// theta = [rx, ry, rz, tx, ty, tz]; start facing the camera one focal
	// length away (model scale makes ~1000 a reasonable depth seed).
	theta := [6]float64{0, 0, 0, 0, 0, 1000}

	for iter := 0; iter < pnpMaxIterations; iter++ {
		if !p.residuals(theta, imagePoints, focal, cx, cy, p.res) {
			return 0, false
		}

		// Numeric Jacobian, forward differences.
		var scratch mat.VecDense
		scratch.ReuseAsVec(12)
		for j := 0; j < 6; j++ {
			h := 1e-5 * (1 + math.Abs(theta[j]))
			perturbed := theta
			perturbed[j] += h
			if !p.residuals(perturbed, imagePoints, focal, cx, cy, &scratch) {
				return 0, false
			}
			for i := 0; i < 12; i++ {
				p.jac.Set(i, j, (scratch.AtVec(i)-p.res.AtVec(i))/h)
			}
		}

		// Damped normal equations: (J^T J + lambda I) step = -J^T r.
		p.nrm.Mul(p.jac.T(), p.jac)
		for d := 0; d < 6; d++ {
			p.nrm.Set(d, d, p.nrm.At(d, d)+pnpDamping)
		}
		p.rhs.MulVec(p.jac.T(), p.res)
		if err := p.step.SolveVec(p.nrm, p.rhs); err != nil {
			return 0, false
		}

		var norm float64
		for d := 0; d < 6; d++ {
			delta := p.step.AtVec(d)
			theta[d] -= delta
			norm += delta * delta
		}
		if norm < pnpConvergence {
			break
		}
	}

	r := rodrigues([3]float64{theta[0], theta[1], theta[2]})

	// Euler pitch about the camera x axis, matching the solve convention.
	sy := math.Sqrt(r[0][0]*r[0][0] + r[1][0]*r[1][0])
	var pitchRad float64
	if sy > 1e-6 {
		pitchRad = math.Atan2(r[2][1], r[2][2])
	} else {
		pitchRad = math.Atan2(-r[1][2], r[1][1])
	}

	pitch := pitchRad * 180 / math.Pi
	// Wrap so that a level head reads near zero regardless of which side of
	// the 180-degree seam the solve landed on.
	if pitch > 90 {
		pitch -= 180
	} else if pitch < -90 {
		pitch += 180
	}
	return pitch, true
}

// residuals fills out with the 12 reprojection residuals for theta.
// Returns false when any model point projects behind the camera.
func (p *poseSolver) residuals(theta [6]float64, img [6][2]float64, focal, cx, cy float64, out *mat.VecDense) bool {
	r := rodrigues([3]float64{theta[0], theta[1], theta[2]})
	for i, m := range faceModel {
		x := r[0][0]*m[0] + r[0][1]*m[1] + r[0][2]*m[2] + theta[3]
		y := r[1][0]*m[0] + r[1][1]*m[1] + r[1][2]*m[2] + theta[4]
		z := r[2][0]*m[0] + r[2][1]*m[1] + r[2][2]*m[2] + theta[5]
		if z < pnpMinDepth {
			return false
		}
		u := focal*x/z + cx
		v := focal*y/z + cy
		out.SetVec(2*i, u-img[i][0])
		out.SetVec(2*i+1, v-img[i][1])
	}
	return true
}

// rodrigues converts a rotation vector to a rotation matrix.
func rodrigues(rv [3]float64) [3][3]float64 {
	angle := math.Sqrt(rv[0]*rv[0] + rv[1]*rv[1] + rv[2]*rv[2])
	if angle < 1e-12 {
		return [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	}
	kx, ky, kz := rv[0]/angle, rv[1]/angle, rv[2]/angle
	s, c := math.Sin(angle), math.Cos(angle)
	t := 1 - c
	return [3][3]float64{
		{c + kx*kx*t, kx*ky*t - kz*s, kx*kz*t + ky*s},
		{ky*kx*t + kz*s, c + ky*ky*t, ky*kz*t - kx*s},
		{kz*kx*t - ky*s, kz*ky*t + kx*s, c + kz*kz*t},
	}
}

func poseImagePoints(set *landmark.Set) ([6][2]float64, bool) {
	indices := [6]int{
		landmark.NoseTipIndex,
		landmark.ChinIndex,
		landmark.LeftEyeCornerIdx,
		landmark.RightEyeCornerIdx,
		landmark.LeftMouthCornerIdx,
		landmark.RightMouthCornerIx,
	}
	var out [6][2]float64
	for i, idx := range indices {
		pt, ok := set.At(idx)
		if !ok {
			return out, false
		}
		out[i] = [2]float64{pt.X, pt.Y}
	}
	return out, true
}
