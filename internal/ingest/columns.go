package ingest

import "github.com/OpenNSW/tradestats/internal/trade/model"

// Export spreadsheet columns.
const (
	ColExportDescription = "SHORT_DESC"
	ColExportHSCode      = "HS CODE"
	ColExportYear        = "Year"
	ColExportMonth       = "Month"
	ColExportDestination = "DESTINATION"
	ColExportQuantity    = "QUANTITY"
	ColExportUnit        = "UNIT"
	ColExportFOBValue    = "FOB_VALUE"
)

// Import spreadsheet columns.
const (
	ColImportYear          = "YEAR"
	ColImportMonth         = "MONTH"
	ColImportEntryNumber   = "ENTRY_NUMBER"
	ColImportEntryStatus   = "ENTRYSTATUS"
	ColImportRegDate       = "REG_DATE"
	ColImportQuantity      = "QUANTITY"
	ColImportDischargePort = "PLACE_OF_DISCHARGE"
	ColImportOrigin        = "ORIGIN_COUNTRY_CODE"
	ColImportDestination   = "COUNTRY_OF_DESTINATION"
	ColImportHSCode        = "HSCODE"
	ColImportDescription   = "GOOD_DESCRIPTION"
	ColImportVAT           = "IMPORT_VAT"
	ColImportDuty          = "IMPORT_DUTY"
	ColImportExcise        = "EXCISE"
	ColImportExportDuty    = "EXPORT_DUTY"
	ColImportIDF           = "IDF"
	ColImportRDL           = "RDL"
)

// ExportColumns is the required column set of an export upload.
var ExportColumns = []string{
	ColExportDescription, ColExportHSCode, ColExportYear, ColExportMonth,
	ColExportDestination, ColExportQuantity, ColExportUnit, ColExportFOBValue,
}

// ImportColumns is the required column set of an import upload.
var ImportColumns = []string{
	ColImportYear, ColImportMonth, ColImportEntryNumber, ColImportEntryStatus,
	ColImportRegDate, ColImportQuantity, ColImportDischargePort, ColImportOrigin,
	ColImportDestination, ColImportHSCode, ColImportDescription, ColImportVAT,
	ColImportDuty, ColImportExcise, ColImportExportDuty, ColImportIDF, ColImportRDL,
}

// RequiredColumns returns the column set for flow.
func RequiredColumns(flow model.TradeFlow) []string {
	if flow == model.TradeFlowImport {
		return ImportColumns
	}
	return ExportColumns
}

// productColumns returns the description and HS code columns used by the product pass.
func productColumns(flow model.TradeFlow) (description, hsCode string) {
	if flow == model.TradeFlowImport {
		return ColImportDescription, ColImportHSCode
	}
	return ColExportDescription, ColExportHSCode
}
