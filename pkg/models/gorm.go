package models

func ModelsToAutoMigrate() []interface{} {
	return []interface{}{
		&DocumentType{}, // Must be first - documents and scanned files reference it
		&Document{},
		&DocumentRevision{},
		&DocumentVersion{},
		&ReviewWorkflow{},
		&ReviewStep{},
		&Transmittal{},
		&TransmittalItem{},
		&ScannedFile{},
		&AuditLog{},
	}
}
