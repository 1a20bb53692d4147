package models

// IgnoreTrainID marks pixels excluded from training and evaluation.
const IgnoreTrainID = 255

// cityscapesTrainIDs maps the 34 full Cityscapes label ids (as stored in KITTI semantic
// ground truth) to train ids.
var cityscapesTrainIDs = [34]int{
	255, 255, 255, 255, 255, 255, 255, // unlabeled .. ground
	0, 1, // road, sidewalk
	255, 255, // parking, rail track
	2, 3, 4, // building, wall, fence
	255, 255, 255, // guard rail, bridge, tunnel
	5, 255, // pole, polegroup
	6, 7, 8, 9, 10, // traffic light .. sky
	11, 12, 13, 14, 15, // person .. bus
	255, 255, // caravan, trailer
	16, 17, 18, // train, motorcycle, bicycle
}

// CityscapesTrainID maps a full label id to its train id, IgnoreTrainID for labels
// that are not trained on.
func CityscapesTrainID(labelID int) int {
	if labelID < 0 || labelID >= len(cityscapesTrainIDs) {
		return IgnoreTrainID
	}
	return cityscapesTrainIDs[labelID]
}

// ToTrainIDs converts a label-id map in place and returns it.
func ToTrainIDs(m *ClassMap) *ClassMap {
	for i, id := range m.Index {
		m.Index[i] = CityscapesTrainID(id)
	}
	return m
}
