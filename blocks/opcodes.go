package blocks

const (
	// pin
	Op_SetPinMode       = "setPinMode"
	Op_SetDigitalOutput = "setDigitalOutput"
	Op_SetPwmOutput     = "esp32SetPwmOutput"
	Op_SetDACOutput     = "esp32SetDACOutput"
	Op_ReadDigitalPin   = "readDigitalPin"
	Op_ReadAnalogPin    = "readAnalogPin"
	Op_ReadTouchPin     = "esp32ReadTouchPin"
	Op_SetServoOutput   = "esp32SetServoOutput"
	Op_SetSCServo       = "esp32SetSCServo"
	Op_AttachInterrupt  = "esp32AttachInterrupt"
	Op_DetachInterrupt  = "esp32DetachInterrupt"

	// serial
	Op_SerialBegin     = "esp32SerialBegin"
	Op_SerialPrint     = "multiSerialPrint"
	Op_SerialAvailable = "multiSerialAvailable"
	Op_SerialReadByte  = "multiSerialReadAByte"

	// data
	Op_DataMap           = "dataMap"
	Op_DataConstrain     = "dataConstrain"
	Op_DataConvert       = "dataConvert"
	Op_DataToASCIIChar   = "dataConvertASCIICharacter"
	Op_DataToASCIINumber = "dataConvertASCIINumber"

	// robot
	Op_SetJointAngle     = "steeringGearConfig"
	Op_SetAllJointAngles = "setServoPosAll"
	Op_SetGripper        = "setGripper"
	Op_SetGripperStatus  = "setGripperStatus"
	Op_SetGripperDefault = "setGripperStatusDefault"
	Op_SetCoordinates    = "setAllCoordinates"
	Op_GetAllAngles      = "getAllAngle"
	Op_GetAllCoordinates = "getAllCoordinates"
)

// メニュー名
const (
	Menu_Pins            = "pins"
	Menu_OutPins         = "outPins"
	Menu_Mode            = "mode"
	Menu_AnalogPins      = "analogPins"
	Menu_Level           = "level"
	Menu_LedcChannels    = "ledcChannels"
	Menu_DACPins         = "dacPins"
	Menu_TouchPins       = "touchPins"
	Menu_InterruptMode   = "interruptMode"
	Menu_Baudrate        = "baudrate"
	Menu_SerialNo        = "serialNo"
	Menu_Eol             = "eol"
	Menu_DataType        = "dataType"
	Menu_Joint           = "joint"
	Menu_GripperStatus   = "gripperStatus"
	Menu_CoordinatesMode = "coordinatesMode"
)
