package analysis

// Point is a single (x, y) observation for regression.
type Point struct {
	X, Y float64
}

// Regression holds a least-squares fit.
type Regression struct {
	Slope     float64
	Intercept float64
	RSquared  float64
}

// LinearRegression fits y = slope*x + intercept by ordinary least squares.
// Fewer than two points (or zero x variance) yields the zero fit rather
// than an error; callers treat that as "not enough data".
func LinearRegression(points []Point) Regression {
	n := float64(len(points))
	if n < 2 {
		return Regression{}
	}

	var sumX, sumY, sumXY, sumXX float64
	for _, p := range points {
		sumX += p.X
		sumY += p.Y
		sumXY += p.X * p.Y
		sumXX += p.X * p.X
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return Regression{}
	}

	slope := (n*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / n

	// R² = 1 - SSres/SStot; a zero-variance y series carries no signal.
	meanY := sumY / n
	var ssRes, ssTot float64
	for _, p := range points {
		predicted := slope*p.X + intercept
		ssRes += (p.Y - predicted) * (p.Y - predicted)
		ssTot += (p.Y - meanY) * (p.Y - meanY)
	}

	rSquared := 0.0
	if ssTot > 0 {
		rSquared = 1 - ssRes/ssTot
	}

	return Regression{Slope: slope, Intercept: intercept, RSquared: rSquared}
}
