package ds323x

// Register addresses and bitfields shared by the DS3231/DS3232/DS3234.

const (
	// 7-bit I2C address (1101_000b).
	Address = 0x68

	// SPI write-mode flag, OR'd into the register address.
	spiWrite = 0x80

	// --- Register addresses (identical on all three parts) ---

	// Timekeeping
	regSeconds = 0x00
	regMinutes = 0x01
	regHours   = 0x02
	regDOW     = 0x03
	regDOM     = 0x04
	regMonth   = 0x05 // bit 7 = century
	regYear    = 0x06

	// Alarms
	regAlarm1Seconds = 0x07 // 4 bytes: s, m, h, day/date
	regAlarm2Minutes = 0x0B // 3 bytes: m, h, day/date

	// Control / status
	regControl     = 0x0E
	regStatus      = 0x0F
	regAgingOffset = 0x10
	regTempMSB     = 0x11 // 2 bytes: MSB, LSB
	regTempConv    = 0x13 // DS3234 only

	// --- HOURS ---
	bitH12 = 0b0100_0000
	bitPM  = 0b0010_0000

	// --- MONTH ---
	bitCentury = 0b1000_0000

	// --- CONTROL (0x0E) ---
	bitEOSC    = 0b1000_0000 // oscillator disabled when set
	bitBBSQW   = 0b0100_0000
	bitCONV    = 0b0010_0000
	bitRS2     = 0b0001_0000
	bitRS1     = 0b0000_1000
	bitINTCN   = 0b0000_0100
	bitA2IE    = 0b0000_0010
	bitA1IE    = 0b0000_0001
	controlPOR = bitRS2 | bitRS1 | bitINTCN

	// --- STATUS (0x0F) ---
	bitOSF     = 0b1000_0000
	bitBB32kHz = 0b0100_0000 // DS3232/DS3234
	bitCRATE1  = 0b0010_0000 // DS3232/DS3234
	bitCRATE0  = 0b0001_0000 // DS3232/DS3234
	bitEN32kHz = 0b0000_1000
	bitBSY     = 0b0000_0100
	bitA2F     = 0b0000_0010
	bitA1F     = 0b0000_0001
	alarmFlags = bitA2F | bitA1F

	statusPOR3231 = bitOSF | bitEN32kHz
	statusPOR323x = bitOSF | bitBB32kHz | bitEN32kHz

	// --- Alarm registers ---
	bitAlarmMask = 0b1000_0000 // field ignored when set
	bitDYDT      = 0b0100_0000 // day register holds weekday when set

	// --- TEMP_CONV (0x13, DS3234) ---
	bitBBTD = 0b0000_0001 // battery-backed temperature conversions disabled when set
)
