package detection

// cocoLabels are the 80 COCO class names indexed by the contiguous class id
// emitted by the segmenter.
var cocoLabels = [...]string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck",
	"boat", "traffic light", "fire hydrant", "stop sign", "parking meter", "bench",
	"bird", "cat", "dog", "horse", "sheep", "cow", "elephant", "bear", "zebra",
	"giraffe", "backpack", "umbrella", "handbag", "tie", "suitcase", "frisbee",
	"skis", "snowboard", "sports ball", "kite", "baseball bat", "baseball glove",
	"skateboard", "surfboard", "tennis racket", "bottle", "wine glass", "cup",
	"fork", "knife", "spoon", "bowl", "banana", "apple", "sandwich", "orange",
	"broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair", "couch",
	"potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink",
	"refrigerator", "book", "clock", "vase", "scissors", "teddy bear",
	"hair drier", "toothbrush",
}

// CocoLabel returns the class name for a contiguous COCO class id.
func CocoLabel(id int) (string, bool) {
	if id < 0 || id >= len(cocoLabels) {
		return "", false
	}
	return cocoLabels[id], true
}

// CocoClassID returns the contiguous class id of a COCO class name.
func CocoClassID(label string) (int, bool) {
	for i, l := range cocoLabels {
		if l == label {
			return i, true
		}
	}
	return 0, false
}
