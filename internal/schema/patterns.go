package schema

// Anchoring is applied by the validator, so the patterns here are bare.
const (
	// UUID matches hexadecimal, integer, URN and GUID renderings.
	UUID = `(?:[0-9]{39})|(?:(?:(?:urn:)?uuid:|{)?[0-9a-fA-F]{8}-?(?:[0-9a-fA-F]{4}-?){3}[0-9a-fA-F]{12}}?)`

	// UUIDHex matches hexadecimal UUIDs with or without separators.
	UUIDHex = `[0-9a-fA-F]{8}-?(?:[0-9a-fA-F]{4}-?){3}[0-9a-fA-F]{12}`

	// UUIDInt matches base-10 UUIDs, exactly 39 digits with leading zeros.
	UUIDInt = `[0-9]{39}`

	// UUIDURN matches UUIDs in URN form, e.g. urn:uuid:123e4567-....
	UUIDURN = `(?:urn:)?uuid:[0-9a-fA-F]{8}-?(?:[0-9a-fA-F]{4}-?){3}[0-9a-fA-F]{12}`

	// GUID matches hexadecimal UUIDs in curly brackets.
	GUID = `{?[0-9a-fA-F]{8}-?(?:[0-9a-fA-F]{4}-?){3}[0-9a-fA-F]{12}}?`

	ISODay   = `(0?[1-9]|[12][0-9]|3[01])`
	ISOMonth = `(0[1-9]|1[0-2])`
	ISOYear  = `[0-9]{4}`

	// ISOYearMonth matches dates of the form YYYY-MM.
	ISOYearMonth = `[0-9]{1,4}\-(0[1-9]|1[0-2])`

	// ISOYearMonthDay matches dates of the form YYYY-MM-DD.
	ISOYearMonthDay = `[0-9]{1,4}\-(0[1-9]|1[0-2])\-(0[1-9]|[12][0-9]|3[01])`

	// TaskLocalisationLabel matches labels like ZzzZzz_Zzz_ZZ with an
	// optional dot-separated alphanumeric suffix (ZzzZzz_Zzz_ZZ.variant).
	TaskLocalisationLabel = `[A-Z][a-z]{2}[A-Z][a-z]{2}_[A-Z][a-z]{2}_[A-Z]{2}(?:\.[A-Za-z0-9]+)?`

	// SoftwareVersionNumber matches version strings like 0.3.5, 0.1.2rc45.
	SoftwareVersionNumber = `(?:\d+.)*\d+\w?\w?\d*`

	// SoftwareLocaleString matches locale strings like en_GB.
	SoftwareLocaleString = `[a-z]{2}_[A-Z]{2}`

	// ShortID matches alphanumeric IDs of 3 to 10 characters.
	ShortID = `[A-Za-z0-9]{3,10}`

	// ShortText matches free text up to 255 characters.
	ShortText = `.{0,255}`

	// LongText matches free text of any length.
	LongText = `.*`

	// LocationName matches place names such as Stoke-on-Trent.
	LocationName = `[\w,' \(\)\.\-]{1,50}`

	// LanguageName matches language names such as Lombard or Scottish Gaelic.
	LanguageName = `[\w][\w\-_ \(\)]{2,50}`
)
