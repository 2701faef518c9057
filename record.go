package robot

// Sentinel is the two-byte end-of-record marker every framed record ends
// with, on the wire and in memory once Codec has stripped it.
const Sentinel = "\x07\x08"

// Max payload lengths (excluding the two-byte sentinel) for each inbound
// record type, per spec §3.
const (
	maxUsername     = 18
	maxKeyID        = 3
	maxConfirmation = 5
	maxOKPosition   = 10
	maxMessage      = 98
	maxRecharging   = 10
	maxFullPower    = 10
)

// outRecord is one of the fixed outbound record literals, or a dynamically
// formatted CONFIRMATION. The Writer appends Sentinel before it goes on the
// wire.
type outRecord string

const (
	outMove          outRecord = "102 MOVE"
	outTurnLeft      outRecord = "103 TURN LEFT"
	outTurnRight     outRecord = "104 TURN RIGHT"
	outPickUp        outRecord = "105 GET MESSAGE"
	outLogout        outRecord = "106 LOGOUT"
	outKeyRequest    outRecord = "107 KEY REQUEST"
	outOK            outRecord = "200 OK"
	outLoginFailed   outRecord = "300 LOGIN FAILED"
	outSyntaxError   outRecord = "301 SYNTAX ERROR"
	outLogicError    outRecord = "302 LOGIC ERROR"
	outKeyOutOfRange outRecord = "303 KEY OUT OF RANGE"
)

const recharging = "RECHARGING"
const fullPower = "FULL POWER"
