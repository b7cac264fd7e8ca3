package servicestate

import (
	"fmt"
	"math"
	"strconv"
)

// SignalFieldCount is the number of fields in a signal strength reply.
const SignalFieldCount = 12

// SignalInvalid marks an LTE measurement the radio did not report.
const SignalInvalid = math.MaxInt32

// SignalStrength is one signal measurement. CDMA and EVDO levels are in
// negative dBm or tenths of dB; GSM and LTE carry 3GPP units.
type SignalStrength struct {
	GsmRssi  int `json:"gsmRssi"`
	GsmBer   int `json:"gsmBer"`
	CdmaDbm  int `json:"cdmaDbm"`
	CdmaEcio int `json:"cdmaEcio"`
	EvdoDbm  int `json:"evdoDbm"`
	EvdoEcio int `json:"evdoEcio"`
	EvdoSnr  int `json:"evdoSnr"`
	LteRssi  int `json:"lteRssi"`
	LteRsrp  int `json:"lteRsrp"`
	LteRsrq  int `json:"lteRsrq"`
	LteSnr   int `json:"lteSnr"`
	LteCqi   int `json:"lteCqi"`
}

// DefaultSignalStrength is the no-signal value used while the radio is off
// and whenever a reply cannot be used.
func DefaultSignalStrength() SignalStrength {
	return SignalStrength{
		GsmRssi:  99,
		GsmBer:   -1,
		CdmaDbm:  -1,
		CdmaEcio: -1,
		EvdoDbm:  -1,
		EvdoEcio: -1,
		EvdoSnr:  -1,
		LteRssi:  99,
		LteRsrp:  SignalInvalid,
		LteRsrq:  SignalInvalid,
		LteSnr:   SignalInvalid,
		LteCqi:   SignalInvalid,
	}
}

// ParseSignalStrength converts a 12-field reply. The radio reports CDMA and
// EVDO levels as positive magnitudes; out of range values take the floor of
// their scale.
func ParseSignalStrength(fields []string) (SignalStrength, error) {
	if len(fields) != SignalFieldCount {
		return DefaultSignalStrength(), fmt.Errorf("signal strength has %d fields, want %d: %w",
			len(fields), SignalFieldCount, ErrMalformedReply)
	}
	v := make([]int, SignalFieldCount)
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return DefaultSignalStrength(), fmt.Errorf("signal strength field %d %q: %w", i, f, ErrMalformedReply)
		}
		v[i] = n
	}

	s := SignalStrength{
		GsmRssi:  99,
		GsmBer:   v[1],
		CdmaDbm:  -120,
		CdmaEcio: -160,
		EvdoDbm:  -120,
		EvdoEcio: -1,
		EvdoSnr:  -1,
		LteRssi:  99,
		LteRsrp:  SignalInvalid,
		LteRsrq:  v[9],
		LteSnr:   SignalInvalid,
		LteCqi:   v[11],
	}
	if v[0] >= 0 {
		s.GsmRssi = v[0]
	}
	if v[2] > 0 {
		s.CdmaDbm = -v[2]
	}
	if v[3] > 0 {
		s.CdmaEcio = -v[3]
	}
	if v[4] > 0 {
		s.EvdoDbm = -v[4]
	}
	if v[5] > 0 {
		s.EvdoEcio = -v[5]
	}
	if v[6] > 0 && v[6] <= 8 {
		s.EvdoSnr = v[6]
	}
	if v[7] >= 0 {
		s.LteRssi = v[7]
	}
	if v[8] >= 44 && v[8] <= 140 {
		s.LteRsrp = -v[8]
	}
	if v[10] >= -200 && v[10] <= 300 {
		s.LteSnr = v[10]
	}
	return s, nil
}
