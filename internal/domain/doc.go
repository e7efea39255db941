// Package domain models Oklahoma stream water-quality and streamflow data and
// the chart specifications the dashboard renders from it.
//
// # Data Sources
//
// Three CSV tables are loaded once at startup and never mutated:
//
//	OWS_BacteriaData_2018.csv  Station_Name, Sample_Time, Ecoli, Enterococci, Lat, Long
//	Station_Data.csv           Station_Name, Lat, Long
//	USGS_Gauges.csv            Station_Name, Site_Number, Lat, Long
//
// They are bundled into a [Dataset], the read-only data context every chart
// builder receives by reference.
//
// Daily discharge comes from the USGS NWIS daily-values service through the
// [SeriesFetcher] port. Site numbers in USGS_Gauges.csv lost their leading
// zero when the sheet was exported, so the NWIS site identifier is
// "0" + Site_Number (see [StationSelection.SiteID]).
//
// # Units
//
//	Ecoli, Enterococci  most probable number per 100 mL (MPN/100mL)
//	Discharge           cubic feet per second (cfs), NWIS parameter 00060,
//	                    daily mean statistic 00003
//
// Blank bacteria cells are loaded as missing values (NaN). They are dropped
// from time-series traces and excluded from averages.
//
// # Station Labels
//
// Map markers carry the station name as hover text. A hovered label is
// classified by [Resolve]: bacteria stations are tested first, using
// substring containment against every bacteria station name, then gauges by
// exact name. A label found in neither table is [ErrInvalidSelection].
//
// # Flow-Duration Curve
//
// Discharge values are ranked in descending order and each rank i of n is
// assigned exceedance probability i/n*100. See [FlowDuration].
package domain
