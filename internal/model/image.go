package model

// ImageAsset is the single image currently selected for submission.
type ImageAsset struct {
	Name        string
	ContentType string
	Data        []byte
}

// Empty reports whether there is nothing to submit.
func (a *ImageAsset) Empty() bool {
	return a == nil || len(a.Data) == 0
}
