// Package enrich implements the stateful record enrichment engine: the
// ordered multi-store merge with per-store overwrite policy and the
// pluggable enrichment chain applied after it.
package enrich

// Output dimension names shared across the pipeline.
const (
	FieldClientMAC           = "client_mac"
	FieldNamespaceUUID       = "namespace_uuid"
	FieldNamespace           = "namespace"
	FieldTimestamp           = "timestamp"
	FieldType                = "type"
	FieldDuration            = "duration"
	FieldFlowsCount          = "flows_count"
	FieldSensorName          = "sensor_name"
	FieldSensorUUID          = "sensor_uuid"
	FieldSubscriptionName    = "subscription_name"
	FieldMarket              = "market"
	FieldMarketUUID          = "market_uuid"
	FieldOrganization        = "organization"
	FieldOrganizationUUID    = "organization_uuid"
	FieldDeployment          = "deployment"
	FieldDeploymentUUID      = "deployment_uuid"
	FieldServiceProvider     = "service_provider"
	FieldServiceProviderUUID = "service_provider_uuid"
	FieldClientProfile       = "client_profile"
	FieldClientID            = "client_id"
	FieldWirelessID          = "wireless_id"
	FieldWirelessStation     = "wireless_station"
	FieldDot11Status         = "dot11_status"
	FieldDot11Protocol       = "nmsp_dot11protocol"
	FieldCampus              = "campus"
	FieldBuilding            = "building"
	FieldFloor               = "floor"
	FieldZone                = "zone"
	FieldSrcAddr             = "src_addr"
	FieldDstAddr             = "dst_addr"
	FieldFirstSwitched       = "first_switched"
)
