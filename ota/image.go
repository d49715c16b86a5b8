package ota

// ImageKey identifies an image the way the index looks images up: a
// manufacturer/image-type pair, further narrowed by the requesting
// device's model string when more than one image answers the same pair
// (e.g. two hardware revisions sharing a manufacturer/image-type but not a
// firmware binary).
type ImageKey struct {
	ManufacturerCode uint16
	ImageType        uint16
	Model            string
}

// Image is a firmware binary this core can offer a device, already loaded
// into memory; fetching it from a vendor endpoint is the caller's job.
type Image struct {
	Key                ImageKey
	FileVersion        uint32
	MinHardwareVersion uint16
	MaxHardwareVersion uint16
	HasHardwareVersions bool
	Data               []byte
}

// Size returns the image's byte length, the value a QueryNextImageRsp
// reports as ImageSize.
func (img Image) Size() uint32 { return uint32(len(img.Data)) }

// shouldUpdate reports whether img is worth offering a device currently on
// currentVersion with the given hardware version. A device reports no
// hardware version (hasHW=false) when its query omitted the optional
// field; an image that declares a hardware range then can't be matched and
// is skipped; an image with no declared range always matches.
func (img Image) shouldUpdate(currentVersion uint32, hardwareVersion uint16, hasHW bool) bool {
	if img.FileVersion <= currentVersion {
		return false
	}
	if !img.HasHardwareVersions {
		return true
	}
	if !hasHW {
		return false
	}
	return hardwareVersion >= img.MinHardwareVersion && hardwareVersion <= img.MaxHardwareVersion
}

// Index holds every image this core is prepared to offer, keyed for
// lookup by the same (manufacturer_id, image_type, model) triple a
// QueryNextImageReq plus the device's own model string resolve to.
type Index struct {
	images map[ImageKey]Image
}

// NewIndex builds an empty image index.
func NewIndex() *Index {
	return &Index{images: make(map[ImageKey]Image)}
}

// Add registers or replaces the image for key.
func (idx *Index) Add(img Image) {
	idx.images[img.Key] = img
}

// Remove drops key's image, if present.
func (idx *Index) Remove(key ImageKey) {
	delete(idx.images, key)
}

// Lookup resolves a (manufacturer_id, image_type, model) triple to its
// image, if the index carries one.
func (idx *Index) Lookup(manufacturerCode, imageType uint16, model string) (Image, bool) {
	img, ok := idx.images[ImageKey{ManufacturerCode: manufacturerCode, ImageType: imageType, Model: model}]
	return img, ok
}
