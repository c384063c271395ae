package operation

import "time"

// 📈 Progress holds the live counters for one operation. TotalFiles and
// TotalBytes are seeded from a pre-flight size calculation; the rest is
// accumulated from progress protocol events.
type Progress struct {
	TotalBytes         uint64
	TransferredBytes   uint64
	TotalFiles         int
	CompletedFiles     int
	CurrentFile        string
	SpeedBytesPerSec   uint64
	EstimatedRemaining time.Duration
}

// NewProgress seeds a progress counter with pre-computed totals
func NewProgress(totalFiles int, totalBytes uint64) Progress {
	return Progress{
		TotalBytes: totalBytes,
		TotalFiles: totalFiles,
	}
}

// Percentage returns completion in [0, 100]. Byte totals win when known;
// otherwise the file-count ratio is used. An operation with no files and
// no bytes is trivially complete and reports 100.
func (p Progress) Percentage() float64 {
	var pct float64
	switch {
	case p.TotalBytes > 0:
		pct = float64(p.TransferredBytes) / float64(p.TotalBytes) * 100.0
	case p.TotalFiles > 0:
		pct = float64(p.CompletedFiles) / float64(p.TotalFiles) * 100.0
	default:
		return 100.0
	}
	// Totals come from a best-effort pre-flight walk and may undercount.
	if pct > 100.0 {
		pct = 100.0
	}
	return pct
}

// UpdateSpeed recomputes the transfer rate and the remaining-time
// estimate from the bytes moved so far and the elapsed wall time.
func (p *Progress) UpdateSpeed(bytesTransferred uint64, elapsed time.Duration) {
	if elapsed <= 0 {
		return
	}
	p.SpeedBytesPerSec = uint64(float64(bytesTransferred) / elapsed.Seconds())
	if p.SpeedBytesPerSec > 0 && p.TotalBytes >= p.TransferredBytes {
		remaining := p.TotalBytes - p.TransferredBytes
		p.EstimatedRemaining = time.Duration(remaining/p.SpeedBytesPerSec) * time.Second
	}
}
