// Package domain models National Data Buoy Center (NDBC) station metadata and
// latest observations.
//
// # Data Sources
//
// Station metadata comes from https://www.ndbc.noaa.gov/activestations.xml, a
// flat list of <station> elements whose attributes describe each platform:
//
//	<station id="0y2w3" lat="44.794" lon="-87.313" elev="179"
//	         name="Sturgeon Bay CG Station, WI" owner="U.S.C.G. Marine Reporting Stations"
//	         pgm="IOOS Partners" type="fixed" met="n" currents="n"
//	         waterquality="n" dart="n"/>
//
// Current conditions come from https://www.ndbc.noaa.gov/data/latest_obs/latest_obs.txt,
// a whitespace-delimited table with two '#' header lines:
//
//	#STN     LAT      LON  YYYY MM DD hh mm WDIR WSPD GST WVHT DPD APD MWD   PRES PTDY ATMP WTMP DEWP VIS TIDE
//	#text    deg      deg   yr mo day hr mn degT  m/s m/s   m  sec sec degT  hPa  hPa degC degC degC nmi   ft
//	1801589 37.37 -122.86  2023 09 23 15 30  183  1.6 2.0  1.1  10  MM  MM 1017.7  MM 14.6 16.8 10.8  MM   MM
//
// # Conventions
//
// Missing values:
//
//	"MM" marks a missing reading. Any column that does not parse as a plain
//	number leaves the corresponding Observation field nil; it is never zero.
//
// Station keys:
//
//	Both snapshots are keyed "B-<id>". Catalog keys upper-case the id;
//	observation keys keep the feed's case. Lookups across the two go through
//	[StationKey].
//
// Catalog tuples:
//
//	Each catalog entry is a pipe-joined tuple in [Legend] order with empty
//	strings for absent attributes, so every tuple has the same column count.
//	The legend itself is carried with the catalog so consumers can destructure
//	entries by name.
//
// Units:
//
//	Wind and gust arrive in m/s and are stored in knots; temperatures arrive in
//	degC and are stored in degF; wave height arrives in meters and is stored in
//	feet; pressure stays in hPa; visibility stays in nautical miles; tide stays
//	in feet. See package units for the exact rounding rules.
package domain
