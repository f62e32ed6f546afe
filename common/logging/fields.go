package logging

const (
	// FieldError can be used instead of Err(err) if you have only the error message string.
	FieldError = "err"

	FieldComponent = "component"

	FieldDuration = "duration"
	FieldWorkers  = "workers"

	FieldTarget   = "target"
	FieldEnv      = "env"
	FieldContract = "contract"
	FieldArtifact = "artifact"
	FieldLibrary  = "library"

	FieldSolcVersion = "solcVersion"
	FieldSourceFile  = "sourceFile"

	FieldCacheKey = "cacheKey"
	FieldCacheHit = "cacheHit"

	FieldManifest  = "manifest"
	FieldOutputDir = "outputDir"
)
