package constants

// Default table names. Both are overridable through configuration.
const (
	ArchivalTable    = "existing_jobs"
	OperationalTable = "active_jobs"
)

// KeyColumn is the archival primary key and the update selector.
const KeyColumn = "job_number"

// ArchivalColumns is the physical column order of the archival table.
// Inserts bind parameters positionally in exactly this order.
var ArchivalColumns = []string{
	"job_date",
	"address_number",
	"street",
	"job_number",
	"parcel_id",
	"subdivision",
	"lot",
	"block",
	"plat_book",
	"plat_page",
	"legal_description",
	"entry_by",
	"additional_info",
	"contact_info",
	"requested_services",
	"benchmark",
}

// OperationalColumns is the physical column order of the operational table.
var OperationalColumns = []string{
	"job_date",
	"job_number",
	"parcel_id",
	"county",
	"address",
	"zip_code",
	"requested_services",
	"fieldwork_date",
	"inhouse_status",
	"invoice_status",
	"contact_info",
	"legal_description",
	"additional_info",
	"property_appraiser",
	"map",
	"fema_map",
	"subdivision",
	"deed",
}

// UpdateColumns are the archival fields an update-path submission may rewrite.
// Street/address, requested services and benchmark are deliberately absent.
var UpdateColumns = []string{
	"job_date",
	"parcel_id",
	"subdivision",
	"lot",
	"block",
	"plat_book",
	"plat_page",
	"legal_description",
	"entry_by",
	"additional_info",
	"contact_info",
}

// GatherColumns are the archival fields copied back into the entry form
// when an operator looks up a known job number.
var GatherColumns = []string{
	"parcel_id",
	"entry_by",
	"contact_info",
	"additional_info",
}
