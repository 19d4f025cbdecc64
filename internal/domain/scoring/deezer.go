// internal/domain/scoring/deezer.go

package scoring

import (
	"math"

	"soundscout/internal/domain/metric"
)

// Balanced-profile sub-score weights. They sum to 100.
const (
	deezerFansMax       = 30
	deezerEngagementMax = 30
	deezerAlbumsMax     = 25
	deezerRatioMax      = 15
)

// deezerBalancedScore is the later Deezer formula generation: smoother
// curves, no radio sub-score, no bonus or malus.
func deezerBalancedScore(s metric.Snapshot) float64 {
	return deezerFansScore(s.Fans) +
		deezerEngagementScore(s.EngagementRate) +
		deezerAlbumsScore(s.TotalAlbums) +
		deezerRatioScore(s.Fans, s.TotalAlbums)
}

// deezerFansScore ramps through three growth bands up to the 15k-30k
// optimum, then decays past 30k where an artist is no longer emerging.
func deezerFansScore(fans int) float64 {
	f := float64(fans)
	var score float64
	switch {
	case fans < 1000:
		score = 0
	case fans < 5000:
		score = (f - 1000) / 4000 * 15
	case fans < 15000:
		score = 15 + (f-5000)/10000*10
	case fans <= 30000:
		score = 25 + (f-15000)/15000*5
	default:
		score = math.Max(20, 30-(f-30000)/20000*10)
	}
	return clamp(score, 0, deezerFansMax)
}

// deezerEngagementScore is strict at the top: a perfect engagement rate
// is worth 30 points but each band below 90 starts 5 points lower.
func deezerEngagementScore(engagement float64) float64 {
	var score float64
	switch {
	case engagement >= 90:
		score = 25 + (engagement-90)/10*5
	case engagement >= 70:
		score = 20 + (engagement-70)/20*5
	case engagement >= 50:
		score = 15 + (engagement-50)/20*5
	case engagement >= 30:
		score = 10 + (engagement-30)/20*5
	default:
		score = engagement / 30 * 10
	}
	return clamp(score, 0, deezerEngagementMax)
}

// deezerAlbumsScore is a bell curve peaking around 5 albums: enough
// output to prove consistency, not enough to be an established act.
func deezerAlbumsScore(albums int) float64 {
	a := float64(albums)
	var score float64
	switch {
	case albums == 0:
		score = 0
	case albums == 1:
		score = 8
	case albums == 2:
		score = 15
	case albums <= 8:
		score = 20 + (8-math.Abs(a-5))/3*5
	case albums <= 15:
		score = 18 - (a-9)/6*3
	case albums <= 30:
		score = 15 - (a-16)/14*5
	default:
		score = math.Max(5, 10-(a-30)/20*5)
	}
	return clamp(score, 0, deezerAlbumsMax)
}

// deezerRatioScore rates fan efficiency per album. Zero albums resolve
// to a zero score, never a division error.
func deezerRatioScore(fans, albums int) float64 {
	if albums == 0 {
		return 0
	}
	r := float64(fans) / float64(albums)
	var score float64
	switch {
	case r >= 2000 && r <= 8000:
		score = deezerRatioMax
	case r >= 1000 && r < 2000:
		score = 10 + (r-1000)/1000*5
	case r > 8000 && r <= 15000:
		score = 15 - (r-8000)/7000*5
	case r < 1000:
		score = r / 1000 * 10
	default:
		score = math.Max(5, 10-(r-15000)/10000*5)
	}
	return clamp(score, 0, deezerRatioMax)
}

// deezerStrictScore is the earlier formula generation: coarser steps, a
// radio sub-score, a +5 bonus for true emerging acts (5k-15k fans) and a
// x0.85 malus above 40k fans.
func deezerStrictScore(s metric.Snapshot) float64 {
	fans := float64(s.Fans)

	var fansScore float64
	switch {
	case s.Fans >= 8000 && s.Fans <= 25000:
		fansScore = 25
	case s.Fans >= 5000 && s.Fans < 8000:
		fansScore = 20
	case s.Fans >= 3000 && s.Fans < 5000:
		fansScore = 15
	case s.Fans >= 1000 && s.Fans < 3000:
		fansScore = 10
	case s.Fans > 25000:
		fansScore = math.Max(5, 25-(fans-25000)/5000)
	default:
		fansScore = fans / 3000 * 8
	}

	var engagementScore float64
	switch {
	case s.EngagementRate >= 80:
		engagementScore = 25
	case s.EngagementRate >= 60:
		engagementScore = 20
	case s.EngagementRate >= 40:
		engagementScore = 15
	case s.EngagementRate >= 20:
		engagementScore = 10
	default:
		engagementScore = s.EngagementRate / 20 * 8
	}

	var albumsScore float64
	switch {
	case s.TotalAlbums >= 3 && s.TotalAlbums <= 8:
		albumsScore = 20
	case s.TotalAlbums == 2:
		albumsScore = 15
	case s.TotalAlbums >= 9:
		albumsScore = 15
	default:
		albumsScore = float64(s.TotalAlbums) * 8
	}

	radioScore := 8.0
	if s.HasRadio {
		radioScore = 15
	}

	var ratioScore float64
	if s.TotalAlbums > 0 {
		r := fans / float64(s.TotalAlbums)
		switch {
		case r >= 1000 && r <= 8000:
			ratioScore = 15
		case r >= 500 && r < 1000:
			ratioScore = 10
		default:
			ratioScore = math.Min(r/8000*12, 12)
		}
	}

	total := fansScore + engagementScore + albumsScore + radioScore + ratioScore

	if s.Fans >= 5000 && s.Fans <= 15000 {
		total = math.Min(total+5, 100)
	}
	if s.Fans > 40000 {
		total *= 0.85
	}

	return total
}
