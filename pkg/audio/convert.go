package audio

// ResampleMono16 converts mono int16 PCM from one sample rate to another
// using linear interpolation. If the rates match (or either is invalid) the
// input slice is returned unchanged.
//
// Linear interpolation is adequate for speech and short sound-effect assets;
// it introduces mild high-frequency roll-off that is inaudible after the
// output device's own reconstruction filter.
func ResampleMono16(pcm []int16, fromRate, toRate int) []int16 {
	if fromRate == toRate || fromRate <= 0 || toRate <= 0 || len(pcm) == 0 {
		return pcm
	}

	ratio := float64(toRate) / float64(fromRate)
	outLen := int(float64(len(pcm)) * ratio)
	if outLen == 0 {
		return nil
	}

	out := make([]int16, outLen)
	step := float64(len(pcm)-1) / float64(outLen-1)
	if outLen == 1 {
		out[0] = pcm[0]
		return out
	}

	for i := range out {
		pos := float64(i) * step
		idx := int(pos)
		if idx >= len(pcm)-1 {
			out[i] = pcm[len(pcm)-1]
			continue
		}
		frac := pos - float64(idx)
		a := float64(pcm[idx])
		b := float64(pcm[idx+1])
		out[i] = int16(a + (b-a)*frac)
	}
	return out
}

// Resample returns clip converted to the target sample rate. Clips already at
// the target rate are returned unchanged (zero allocation).
func Resample(clip Clip, toRate int) Clip {
	if clip.SampleRate == toRate || clip.Empty() {
		return clip
	}
	return Clip{
		PCM:        ResampleMono16(clip.PCM, clip.SampleRate, toRate),
		SampleRate: toRate,
	}
}
