package schema

// StageToSections declares which destination sections a stage may write.
// REUSE only makes sense while a later stage can still read it.
var StageToSections = map[Stage][]DestinationSection{
	StageInit: {DestSpanName, DestSpanTags, DestSpanLogs, DestTags, DestLogs, DestReuse},
	StagePre:  {DestSpanName, DestSpanTags, DestSpanLogs, DestTags, DestLogs, DestReuse},
	StagePost: {DestSpanName, DestSpanTags, DestSpanLogs, DestTags, DestLogs},
}

func StageAllows(stage Stage, section DestinationSection) bool {
	for _, s := range StageToSections[stage] {
		if s == section {
			return true
		}
	}
	return false
}
