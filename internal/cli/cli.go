// Package cli defines the command tree for the ev3 tool.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vitaminmoo/ev3-tool/internal/brick"
	"github.com/vitaminmoo/ev3-tool/internal/config"
	"github.com/vitaminmoo/ev3-tool/internal/transport"
	"github.com/vitaminmoo/ev3-tool/internal/tui"
)

// CLI is the root command structure for ev3.
type CLI struct {
	Verbose bool `short:"v" help:"Enable verbose debug output"`

	Transport string `help:"Transport kind (serial|bluetooth|tcp); defaults from config file" enum:",serial,bluetooth,tcp" default:""`
	Port      string `help:"Serial device node for the serial transport"`
	Name      string `help:"Advertised name for the bluetooth transport"`
	Addr      string `help:"host:port for the tcp transport (empty: discover via beacon)"`
	Sn        string `help:"Brick serial number for the tcp unlock handshake"`

	Device DeviceCmd `cmd:"" help:"Brick info and battery"`
	Motor  MotorCmd  `cmd:"" help:"Motor control"`
	Sensor SensorCmd `cmd:"" help:"Sensor readings"`
	Sound  SoundCmd  `cmd:"" help:"Tone playback"`
	File   FileCmd   `cmd:"" help:"Brick filesystem operations"`
}

// connect opens the configured transport and wraps it in a session.
// Flags override the config file.
func (c *CLI) connect() (*brick.Brick, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if c.Transport != "" {
		cfg.Transport = c.Transport
	}
	if c.Port != "" {
		cfg.SerialPort = c.Port
	}
	if c.Name != "" {
		cfg.BluetoothName = c.Name
	}
	if c.Addr != "" {
		cfg.TCPAddress = c.Addr
	}
	if c.Sn != "" {
		cfg.SerialNumber = c.Sn
	}

	var tr transport.Transport
	switch cfg.Transport {
	case "serial":
		tr, err = transport.OpenSerial(cfg.SerialPort)
	case "bluetooth":
		tr, err = transport.OpenBluetooth(cfg.BluetoothName, 15*time.Second)
	case "tcp":
		if cfg.TCPAddress != "" {
			tr, err = transport.DialTCP(cfg.TCPAddress, cfg.SerialNumber)
		} else {
			tr, err = transport.DiscoverAndDial(15 * time.Second)
		}
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
	if err != nil {
		return nil, err
	}
	return brick.New(tr), nil
}

// parsePorts converts a letter list like "AB" into an output bit field.
func parsePorts(s string) (brick.OutputPort, error) {
	var ports brick.OutputPort
	for _, r := range strings.ToUpper(s) {
		switch r {
		case 'A':
			ports |= brick.OutA
		case 'B':
			ports |= brick.OutB
		case 'C':
			ports |= brick.OutC
		case 'D':
			ports |= brick.OutD
		default:
			return 0, fmt.Errorf("unknown output port %q (use A-D)", r)
		}
	}
	if ports == 0 {
		return 0, fmt.Errorf("no output ports in %q", s)
	}
	return ports, nil
}

// --- Device commands ---

type DeviceCmd struct {
	Info    DeviceInfoCmd    `cmd:"" help:"Show brick name and battery state"`
	Battery DeviceBatteryCmd `cmd:"" help:"Show battery voltage and level"`
	Name    DeviceNameCmd    `cmd:"" help:"Show the brick name"`
}

type DeviceInfoCmd struct{}

func (c *DeviceInfoCmd) Run(globals *CLI) error {
	b, err := globals.connect()
	if err != nil {
		return err
	}
	defer b.Close()

	name, err := b.Name()
	if err != nil {
		return err
	}
	voltage, err := b.BatteryVoltage()
	if err != nil {
		return err
	}
	level, err := b.BatteryLevel()
	if err != nil {
		return err
	}

	fmt.Printf("Name:    %s\n", name)
	fmt.Printf("Battery: %.2f V (%d%%)\n", voltage, level)
	return nil
}

type DeviceBatteryCmd struct{}

func (c *DeviceBatteryCmd) Run(globals *CLI) error {
	b, err := globals.connect()
	if err != nil {
		return err
	}
	defer b.Close()

	voltage, err := b.BatteryVoltage()
	if err != nil {
		return err
	}
	level, err := b.BatteryLevel()
	if err != nil {
		return err
	}
	fmt.Printf("%.2f V (%d%%)\n", voltage, level)
	return nil
}

type DeviceNameCmd struct{}

func (c *DeviceNameCmd) Run(globals *CLI) error {
	b, err := globals.connect()
	if err != nil {
		return err
	}
	defer b.Close()

	name, err := b.Name()
	if err != nil {
		return err
	}
	fmt.Println(name)
	return nil
}

// --- Motor commands ---

type MotorCmd struct {
	Start MotorStartCmd `cmd:"" help:"Start motors at a regulated speed"`
	Stop  MotorStopCmd  `cmd:"" help:"Stop motors"`
	Power MotorPowerCmd `cmd:"" help:"Set unregulated power and start"`
	Step  MotorStepCmd  `cmd:"" help:"Run a ramped step profile in tacho counts"`
	Tacho MotorTachoCmd `cmd:"" help:"Read a motor's tacho counter"`
	Clear MotorClearCmd `cmd:"" help:"Reset tacho counters"`
}

type MotorStartCmd struct {
	Ports string `arg:"" help:"Output ports, e.g. A or BC"`
	Speed int8   `default:"50" help:"Regulated speed -100..100"`
}

func (c *MotorStartCmd) Run(globals *CLI) error {
	ports, err := parsePorts(c.Ports)
	if err != nil {
		return err
	}
	b, err := globals.connect()
	if err != nil {
		return err
	}
	defer b.Close()

	if err := b.SetMotorSpeed(ports, c.Speed); err != nil {
		return err
	}
	return b.StartMotor(ports)
}

type MotorStopCmd struct {
	Ports string `arg:"" optional:"" default:"ABCD" help:"Output ports"`
	Brake bool   `help:"Brake instead of coasting"`
}

func (c *MotorStopCmd) Run(globals *CLI) error {
	ports, err := parsePorts(c.Ports)
	if err != nil {
		return err
	}
	b, err := globals.connect()
	if err != nil {
		return err
	}
	defer b.Close()

	return b.StopMotor(ports, c.Brake)
}

type MotorPowerCmd struct {
	Ports string `arg:"" help:"Output ports"`
	Power int8   `arg:"" help:"Unregulated power -100..100"`
}

func (c *MotorPowerCmd) Run(globals *CLI) error {
	ports, err := parsePorts(c.Ports)
	if err != nil {
		return err
	}
	b, err := globals.connect()
	if err != nil {
		return err
	}
	defer b.Close()

	if err := b.SetMotorPower(ports, c.Power); err != nil {
		return err
	}
	return b.StartMotor(ports)
}

type MotorStepCmd struct {
	Ports    string `arg:"" help:"Output ports"`
	Degrees  int32  `arg:"" help:"Constant-speed phase in tacho counts"`
	Speed    int8   `default:"50" help:"Regulated speed -100..100"`
	RampUp   int32  `default:"0" help:"Ramp-up phase in tacho counts"`
	RampDown int32  `default:"0" help:"Ramp-down phase in tacho counts"`
	Brake    bool   `help:"Brake at the end of the profile"`
}

func (c *MotorStepCmd) Run(globals *CLI) error {
	ports, err := parsePorts(c.Ports)
	if err != nil {
		return err
	}
	b, err := globals.connect()
	if err != nil {
		return err
	}
	defer b.Close()

	return b.StepSpeed(ports, c.Speed, c.RampUp, c.Degrees, c.RampDown, c.Brake)
}

type MotorTachoCmd struct {
	Port string `arg:"" help:"Single output port"`
}

func (c *MotorTachoCmd) Run(globals *CLI) error {
	ports, err := parsePorts(c.Port)
	if err != nil {
		return err
	}
	b, err := globals.connect()
	if err != nil {
		return err
	}
	defer b.Close()

	count, err := b.Tacho(ports)
	if err != nil {
		return err
	}
	fmt.Println(count)
	return nil
}

type MotorClearCmd struct {
	Ports string `arg:"" optional:"" default:"ABCD" help:"Output ports"`
}

func (c *MotorClearCmd) Run(globals *CLI) error {
	ports, err := parsePorts(c.Ports)
	if err != nil {
		return err
	}
	b, err := globals.connect()
	if err != nil {
		return err
	}
	defer b.Close()

	return b.ClearTacho(ports)
}

// --- Sensor commands ---

type SensorCmd struct {
	Read SensorReadCmd `cmd:"" help:"Read an SI-unit sensor value"`
	Pct  SensorPctCmd  `cmd:"" help:"Read a raw percentage sensor value"`
	Name SensorNameCmd `cmd:"" help:"Show the device connected to a port"`
}

type SensorReadCmd struct {
	Port uint8 `arg:"" help:"Input port 1-4"`
	Type int32 `default:"0" help:"Sensor type (0: autodetect)"`
	Mode int32 `default:"0" help:"Sensor mode"`
}

func (c *SensorReadCmd) Run(globals *CLI) error {
	b, err := globals.connect()
	if err != nil {
		return err
	}
	defer b.Close()

	v, err := b.SensorSI(c.Port-1, c.Type, c.Mode)
	if err != nil {
		return err
	}
	fmt.Printf("%g\n", v)
	return nil
}

type SensorPctCmd struct {
	Port uint8 `arg:"" help:"Input port 1-4"`
	Type int32 `default:"0" help:"Sensor type (0: autodetect)"`
	Mode int32 `default:"0" help:"Sensor mode"`
}

func (c *SensorPctCmd) Run(globals *CLI) error {
	b, err := globals.connect()
	if err != nil {
		return err
	}
	defer b.Close()

	v, err := b.SensorPct(c.Port-1, c.Type, c.Mode)
	if err != nil {
		return err
	}
	fmt.Printf("%d%%\n", v)
	return nil
}

type SensorNameCmd struct {
	Port uint8 `arg:"" help:"Input port 1-4"`
}

func (c *SensorNameCmd) Run(globals *CLI) error {
	b, err := globals.connect()
	if err != nil {
		return err
	}
	defer b.Close()

	name, err := b.SensorName(c.Port - 1)
	if err != nil {
		return err
	}
	fmt.Println(name)
	return nil
}

// --- Sound commands ---

type SoundCmd struct {
	Tone SoundToneCmd `cmd:"" help:"Play a tone"`
	Stop SoundStopCmd `cmd:"" help:"Stop playback"`
}

type SoundToneCmd struct {
	Frequency uint16 `arg:"" help:"Frequency in Hz"`
	Duration  uint16 `arg:"" optional:"" default:"500" help:"Duration in ms"`
	Volume    uint8  `default:"25" help:"Volume 0-100"`
}

func (c *SoundToneCmd) Run(globals *CLI) error {
	b, err := globals.connect()
	if err != nil {
		return err
	}
	defer b.Close()

	return b.PlayTone(c.Volume, c.Frequency, c.Duration)
}

type SoundStopCmd struct{}

func (c *SoundStopCmd) Run(globals *CLI) error {
	b, err := globals.connect()
	if err != nil {
		return err
	}
	defer b.Close()

	return b.StopSound()
}

// --- File commands ---

type FileCmd struct {
	Upload   FileUploadCmd   `cmd:"" help:"Upload a local file to the brick"`
	Download FileDownloadCmd `cmd:"" help:"Download a file from the brick"`
	Ls       FileLsCmd       `cmd:"" help:"List a brick directory"`
	Mkdir    FileMkdirCmd    `cmd:"" help:"Create a directory on the brick"`
	Rm       FileRmCmd       `cmd:"" help:"Delete a file on the brick"`
}

type FileUploadCmd struct {
	Local  string `arg:"" type:"existingfile" help:"Local file to upload"`
	Remote string `arg:"" optional:"" help:"Remote path (default: ../prjs/<basename>)"`
}

func (c *FileUploadCmd) Run(globals *CLI) error {
	data, err := os.ReadFile(c.Local)
	if err != nil {
		return err
	}
	remote := c.Remote
	if remote == "" {
		remote = "../prjs/" + filepath.Base(c.Local)
	}

	b, err := globals.connect()
	if err != nil {
		return err
	}
	defer b.Close()

	err = tui.RunTransfer(fmt.Sprintf("Uploading %s", remote), func(onProgress brick.ProgressFunc) error {
		return b.UploadFile(remote, data, onProgress)
	})
	if err != nil {
		return err
	}
	fmt.Printf("Uploaded %d bytes to %s\n", len(data), remote)
	return nil
}

type FileDownloadCmd struct {
	Remote string `arg:"" help:"Remote path to download"`
	Local  string `arg:"" optional:"" help:"Local destination (default: basename)"`
}

func (c *FileDownloadCmd) Run(globals *CLI) error {
	local := c.Local
	if local == "" {
		local = filepath.Base(c.Remote)
	}

	b, err := globals.connect()
	if err != nil {
		return err
	}
	defer b.Close()

	var data []byte
	err = tui.RunTransfer(fmt.Sprintf("Downloading %s", c.Remote), func(onProgress brick.ProgressFunc) error {
		var derr error
		data, derr = b.DownloadFile(c.Remote, brick.DefaultChunkSize, onProgress)
		return derr
	})
	if err != nil {
		return err
	}

	if err := os.WriteFile(local, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("Saved %d bytes to %s\n", len(data), local)
	return nil
}

type FileLsCmd struct {
	Path string `arg:"" optional:"" default:"../prjs" help:"Remote directory"`
}

func (c *FileLsCmd) Run(globals *CLI) error {
	b, err := globals.connect()
	if err != nil {
		return err
	}
	defer b.Close()

	entries, err := b.ListFiles(c.Path)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Dir {
			fmt.Printf("%10s  %s/\n", "", e.Name)
		} else {
			fmt.Printf("%10d  %s\n", e.Size, e.Name)
		}
	}
	return nil
}

type FileMkdirCmd struct {
	Path string `arg:"" help:"Remote directory to create"`
}

func (c *FileMkdirCmd) Run(globals *CLI) error {
	b, err := globals.connect()
	if err != nil {
		return err
	}
	defer b.Close()

	return b.CreateDir(c.Path)
}

type FileRmCmd struct {
	Path string `arg:"" help:"Remote file to delete"`
}

func (c *FileRmCmd) Run(globals *CLI) error {
	b, err := globals.connect()
	if err != nil {
		return err
	}
	defer b.Close()

	return b.DeleteFile(c.Path)
}
