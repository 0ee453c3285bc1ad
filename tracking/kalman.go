package tracking

// KalmanFilter smooths a 2D position with a constant-velocity model. The
// filter is frame-indexed: every Step advances the model by exactly one
// frame, so playback speed does not change the dynamics. X and Y are
// independent, which reduces the usual 4-state filter to two identical
// 2-state filters.
type KalmanFilter struct {
	x, y        axisFilter
	initialized bool
}

// axisFilter is a 1D position/velocity Kalman filter with unit time step.
type axisFilter struct {
	pos, vel float64
	// Covariance matrix.
	p [2][2]float64
}

const (
	// processNoise scales how quickly the filter trusts new motion.
	processNoise = 0.1
	// measurementNoise is the expected detection jitter in pixels.
	measurementNoise = 10.0
	// initialUncertainty seeds the covariance before the first update.
	initialUncertainty = 1000.0
)

// NewKalmanFilter returns an uninitialized filter; the first Step seeds
// the state from the measurement.
func NewKalmanFilter() *KalmanFilter {
	return &KalmanFilter{}
}

// Step advances the filter one frame and folds in the measured position,
// returning the filtered position.
func (kf *KalmanFilter) Step(mx, my float64) (float64, float64) {
	if !kf.initialized {
		kf.x = newAxisFilter(mx)
		kf.y = newAxisFilter(my)
		kf.initialized = true
		return mx, my
	}
	return kf.x.step(mx), kf.y.step(my)
}

// Predict returns the position the model expects after frames more
// frames, without mutating state.
func (kf *KalmanFilter) Predict(frames float64) (float64, float64) {
	if !kf.initialized {
		return 0, 0
	}
	return kf.x.pos + kf.x.vel*frames, kf.y.pos + kf.y.vel*frames
}

func newAxisFilter(measured float64) axisFilter {
	return axisFilter{
		pos: measured,
		p: [2][2]float64{
			{initialUncertainty, 0},
			{0, initialUncertainty},
		},
	}
}

func (a *axisFilter) step(measured float64) float64 {
	// Predict: pos' = pos + vel, vel' = vel (dt = 1 frame).
	predPos := a.pos + a.vel
	predVel := a.vel

	// P = F P F' + Q with F = [[1,1],[0,1]].
	p00 := a.p[0][0] + a.p[1][0] + a.p[0][1] + a.p[1][1] + processNoise/4
	p01 := a.p[0][1] + a.p[1][1] + processNoise/2
	p10 := a.p[1][0] + a.p[1][1] + processNoise/2
	p11 := a.p[1][1] + processNoise

	// Update with the position measurement.
	innovation := measured - predPos
	s := p00 + measurementNoise
	k0 := p00 / s
	k1 := p10 / s

	a.pos = predPos + k0*innovation
	a.vel = predVel + k1*innovation

	a.p[0][0] = (1 - k0) * p00
	a.p[0][1] = (1 - k0) * p01
	a.p[1][0] = p10 - k1*p00
	a.p[1][1] = p11 - k1*p01

	return a.pos
}
