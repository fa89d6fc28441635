package template

// Well-known field ids the report form treats specially. The two settings
// fields are backed by the section editor; the undervolt field carries a
// fixed format rule regardless of the fetched schema.
const (
	FieldGameName             = "game_name"
	FieldGameDisplaySettings  = "game_display_settings"
	FieldGameGraphicsSettings = "game_graphics_settings"
	FieldUndervoltApplied     = "undervolt_applied"
	FieldDevice               = "device"
)

// SettingsField reports whether the id belongs to one of the two
// section-editor backed fields.
func SettingsField(id string) bool {
	return id == FieldGameDisplaySettings || id == FieldGameGraphicsSettings
}
