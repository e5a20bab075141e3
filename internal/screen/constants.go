package screen

// Hamming distance above which a region no longer looks like its calibration capture.
const MaxFingerprintDrift = 10
