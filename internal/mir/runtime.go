package mir

// Names of the runtime helpers that stage the entries of a large list or
// mapping constructor. NewLargeArray and NewLargeRecord read the container
// these helpers fill.
const (
	ListEntryArray    = "getListInitialValueEntryArray"
	MappingEntryArray = "getMappingInitialValueEntryArray"
	SetExpression     = "setExpressionEntry"
	SetSpread         = "setSpreadEntry"
	SetKeyValue       = "setKeyValueEntry"
)
